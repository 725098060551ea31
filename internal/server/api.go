package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"prama/internal/deps"
	"prama/internal/jobs"
	"prama/internal/preflight"
	"prama/internal/services"
	"prama/internal/services/sadtalker"
	"prama/internal/studio"
	"prama/internal/talkinghead"
)

var errUnavailable = fmt.Errorf("%w: feature not configured", services.ErrUnavailable)

type generateResponse struct {
	Status    string `json:"status"`
	VideoPath string `json:"video_path"`
	ResultID  string `json:"result_id"`
}

type ttsResponse struct {
	Status    string `json:"status"`
	AudioPath string `json:"audio_path"`
	ResultID  string `json:"result_id"`
}

type studioResponse struct {
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	VideoPath string        `json:"video_path,omitempty"`
	AudioPath string        `json:"audio_path,omitempty"`
	ResultID  string        `json:"result_id,omitempty"`
	Steps     []studio.Step `json:"steps"`
}

type jobsResponse struct {
	Jobs []jobs.Job `json:"jobs"`
}

type statusResponse struct {
	Ready         bool               `json:"ready"`
	SpeechEnabled bool               `json:"speech_enabled"`
	Dependencies  []deps.Status      `json:"dependencies"`
	Checks        []preflight.Result `json:"checks"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if s.deps.TalkingHead == nil {
		s.writeFailure(w, r, errUnavailable, nil)
		return
	}
	in, cleanup, err := s.readGenerateForm(w, r, sadtalker.APIDefaults())
	defer cleanup()
	if err != nil {
		s.writeFailure(w, r, err, nil)
		return
	}
	res, err := s.deps.TalkingHead.Generate(r.Context(), in)
	if err != nil {
		s.writeFailure(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{Status: statusOK, VideoPath: res.VideoPath, ResultID: res.Tag})
}

// readGenerateForm parses a generation form. cleanup closes the uploaded
// parts and is safe to call on error.
func (s *Server) readGenerateForm(w http.ResponseWriter, r *http.Request, defaults sadtalker.Options) (talkinghead.Input, func(), error) {
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
	if err := s.parseForm(w, r, 2); err != nil {
		return talkinghead.Input{}, cleanup, err
	}
	if err := requireMultipart(r); err != nil {
		return talkinghead.Input{}, cleanup, err
	}
	image, closeImage, err := formFile(r, "source_image")
	closers = append(closers, closeImage)
	if err != nil {
		return talkinghead.Input{}, cleanup, err
	}
	driven, closeAudio, err := formFile(r, "driven_audio")
	closers = append(closers, closeAudio)
	if err != nil {
		return talkinghead.Input{}, cleanup, err
	}
	opts, err := parseOptions(r.Form, defaults)
	if err != nil {
		return talkinghead.Input{}, cleanup, err
	}
	return talkinghead.Input{
		SourceImage:     image,
		DrivenAudio:     driven,
		DrivenAudioPath: strings.TrimSpace(r.FormValue("driven_audio_path")),
		Options:         opts,
	}, cleanup, nil
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if s.deps.TalkingHead == nil {
		s.writeFailure(w, r, errUnavailable, nil)
		return
	}
	if err := s.parseForm(w, r, 0); err != nil {
		s.writeFailure(w, r, err, nil)
		return
	}
	res, err := s.deps.TalkingHead.Speak(r.Context(), r.FormValue("text"))
	if err != nil {
		s.writeFailure(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, ttsResponse{Status: statusOK, AudioPath: res.AudioPath, ResultID: res.Tag})
}

func (s *Server) handleStudio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if s.deps.Studio == nil {
		s.writeFailure(w, r, errUnavailable, nil)
		return
	}
	in, cleanup, err := s.readStudioForm(w, r)
	defer cleanup()
	if err != nil {
		s.writeFailure(w, r, err, nil)
		return
	}
	res, err := s.deps.Studio.Run(r.Context(), in)
	body := studioResponse{
		Status:    statusOK,
		VideoPath: res.FinalVideo,
		AudioPath: res.SpeechAudio,
		ResultID:  res.RunID,
		Steps:     res.Steps,
	}
	if body.Steps == nil {
		body.Steps = []studio.Step{}
	}
	if err != nil {
		body.Status = statusError
		body.Message = err.Error()
		s.writeFailure(w, r, err, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) readStudioForm(w http.ResponseWriter, r *http.Request) (studio.Input, func(), error) {
	closeVideo := func() {}
	cleanup := func() {
		closeVideo()
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
	if err := s.parseForm(w, r, 1); err != nil {
		return studio.Input{}, cleanup, err
	}
	if err := requireMultipart(r); err != nil {
		return studio.Input{}, cleanup, err
	}
	video, closer, err := formFile(r, "face_video")
	closeVideo = closer
	if err != nil {
		return studio.Input{}, cleanup, err
	}
	return studio.Input{
		FaceVideo: video,
		Script:    r.FormValue("script"),
		Language:  r.FormValue("language"),
	}, cleanup, nil
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if s.deps.Jobs == nil {
		writeJSON(w, http.StatusOK, jobsResponse{Jobs: []jobs.Job{}})
		return
	}
	filter, err := parseJobFilter(r)
	if err != nil {
		s.writeFailure(w, r, err, nil)
		return
	}
	items, err := s.deps.Jobs.List(r.Context(), filter)
	if err != nil {
		s.writeFailure(w, r, err, nil)
		return
	}
	if items == nil {
		items = []jobs.Job{}
	}
	writeJSON(w, http.StatusOK, jobsResponse{Jobs: items})
}

func parseJobFilter(r *http.Request) (jobs.Filter, error) {
	query := r.URL.Query()
	var filter jobs.Filter
	if v := strings.TrimSpace(query.Get("kind")); v != "" {
		kind, ok := jobs.ParseKind(v)
		if !ok {
			return filter, fmt.Errorf("%w: unknown kind %q", services.ErrValidation, v)
		}
		filter.Kind = kind
	}
	if v := strings.TrimSpace(query.Get("status")); v != "" {
		status, ok := jobs.ParseStatus(v)
		if !ok {
			return filter, fmt.Errorf("%w: unknown status %q", services.ErrValidation, v)
		}
		filter.Status = status
	}
	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return filter, fmt.Errorf("%w: invalid limit %q", services.ErrValidation, v)
		}
		filter.Limit = limit
	}
	return filter, nil
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if id == "" || strings.Contains(id, "/") || s.deps.Jobs == nil {
		writeJSON(w, http.StatusNotFound, errorBody("job not found"))
		return
	}
	job, err := s.deps.Jobs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("job not found"))
			return
		}
		s.writeFailure(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	var report preflight.Report
	if s.deps.Status != nil {
		report = s.deps.Status(r.Context())
	}
	resp := statusResponse{
		Ready:        report.Ready(),
		Dependencies: report.Dependencies,
		Checks:       report.Checks,
	}
	if s.deps.TalkingHead != nil {
		resp.SpeechEnabled = s.deps.TalkingHead.SpeechEnabled()
	}
	writeJSON(w, http.StatusOK, resp)
}
