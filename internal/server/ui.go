package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"prama/internal/config"
	"prama/internal/language"
	"prama/internal/logging"
	"prama/internal/services/sadtalker"
	"prama/internal/studio"
)

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	talkingHead *template.Template
	studio      *template.Template
}

func loadPages() (*pages, error) {
	parse := func(page string) (*template.Template, error) {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		return t, nil
	}
	th, err := parse("talkinghead.html")
	if err != nil {
		return nil, err
	}
	st, err := parse("studio.html")
	if err != nil {
		return nil, err
	}
	return &pages{talkingHead: th, studio: st}, nil
}

type talkingHeadView struct {
	Title           string
	Error           string
	Options         sadtalker.Options
	Sizes           []int
	PreprocessModes []string
	MaxPoseStyle    int
	MaxBatchSize    int
	SpeechEnabled   bool
	Text            string
	DrivenAudioPath string
	DrivenAudioURL  string
	VideoPath       string
	VideoURL        string
}

type studioView struct {
	Title     string
	Script    string
	Language  string
	Languages []language.Choice
	Steps     []studio.Step
	Error     string
	VideoPath string
	VideoURL  string
}

func (s *Server) talkingHeadView(opts sadtalker.Options) talkingHeadView {
	v := talkingHeadView{
		Title:           "Talking head",
		Options:         opts,
		Sizes:           config.FaceModelSizes,
		PreprocessModes: config.PreprocessModes,
		MaxPoseStyle:    config.MaxPoseStyle,
		MaxBatchSize:    config.MaxBatchSize,
	}
	if s.deps.TalkingHead != nil {
		v.SpeechEnabled = s.deps.TalkingHead.SpeechEnabled()
	} else {
		v.Error = "Talking-head generation is not configured."
	}
	return v
}

func (s *Server) studioView() studioView {
	return studioView{
		Title:     "Vodcast studio",
		Language:  "en",
		Languages: language.SpeechChoices(),
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.render(w, r, http.StatusOK, s.pages.talkingHead, s.talkingHeadView(s.uiDefaults))
}

func (s *Server) handleStudioPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.render(w, r, http.StatusOK, s.pages.studio, s.studioView())
}

func (s *Server) handleUIGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	view := s.talkingHeadView(s.uiDefaults)
	if s.deps.TalkingHead == nil {
		s.render(w, r, http.StatusServiceUnavailable, s.pages.talkingHead, view)
		return
	}
	in, cleanup, err := s.readGenerateForm(w, r, s.uiDefaults)
	defer cleanup()
	if err != nil {
		view.Error = err.Error()
		s.render(w, r, failureStatus(err), s.pages.talkingHead, view)
		return
	}
	view.Options = in.Options
	view.DrivenAudioPath = in.DrivenAudioPath
	view.DrivenAudioURL = s.fileURL(in.DrivenAudioPath)
	res, err := s.deps.TalkingHead.Generate(r.Context(), in)
	if err != nil {
		view.Error = err.Error()
		status := failureStatus(err)
		logFailure(logging.WithContext(r.Context(), s.logger), r, status, err)
		s.render(w, r, status, s.pages.talkingHead, view)
		return
	}
	view.VideoPath = res.VideoPath
	view.VideoURL = s.fileURL(res.VideoPath)
	s.render(w, r, http.StatusOK, s.pages.talkingHead, view)
}

func (s *Server) handleUITTS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	view := s.talkingHeadView(s.uiDefaults)
	if s.deps.TalkingHead == nil {
		s.render(w, r, http.StatusServiceUnavailable, s.pages.talkingHead, view)
		return
	}
	if err := s.parseForm(w, r, 0); err != nil {
		view.Error = err.Error()
		s.render(w, r, failureStatus(err), s.pages.talkingHead, view)
		return
	}
	view.Text = r.FormValue("text")
	res, err := s.deps.TalkingHead.Speak(r.Context(), view.Text)
	if err != nil {
		view.Error = err.Error()
		status := failureStatus(err)
		logFailure(logging.WithContext(r.Context(), s.logger), r, status, err)
		s.render(w, r, status, s.pages.talkingHead, view)
		return
	}
	view.DrivenAudioPath = res.AudioPath
	view.DrivenAudioURL = s.fileURL(res.AudioPath)
	s.render(w, r, http.StatusOK, s.pages.talkingHead, view)
}

func (s *Server) handleUIStudio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/studio", http.StatusSeeOther)
		return
	}
	view := s.studioView()
	if s.deps.Studio == nil {
		view.Error = "Vodcast studio is not configured."
		s.render(w, r, http.StatusServiceUnavailable, s.pages.studio, view)
		return
	}
	in, cleanup, err := s.readStudioForm(w, r)
	defer cleanup()
	view.Script = in.Script
	if lang := strings.TrimSpace(in.Language); lang != "" {
		view.Language = lang
	}
	if err != nil {
		view.Error = err.Error()
		s.render(w, r, failureStatus(err), s.pages.studio, view)
		return
	}
	res, err := s.deps.Studio.Run(r.Context(), in)
	view.Steps = res.Steps
	status := http.StatusOK
	if err != nil {
		status = failureStatus(err)
		logFailure(logging.WithContext(r.Context(), s.logger), r, status, err)
	}
	if res.FinalVideo != "" {
		view.VideoPath = res.FinalVideo
		view.VideoURL = s.fileURL(res.FinalVideo)
	}
	s.render(w, r, status, s.pages.studio, view)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "template render failed", "template_failed",
			logging.Error(err),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
