package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"prama/internal/config"
	"prama/internal/jobs"
	"prama/internal/preflight"
	"prama/internal/services/coqui"
	"prama/internal/services/sadtalker"
	"prama/internal/studio"
	"prama/internal/talkinghead"
)

type stubTalkingHead struct {
	inputs  []talkinghead.Input
	uploads map[string]string
	err     error
	speech  bool
	video   string
}

func (s *stubTalkingHead) Generate(_ context.Context, in talkinghead.Input) (talkinghead.Result, error) {
	s.inputs = append(s.inputs, in)
	if err := in.Options.Validate(); err != nil {
		return talkinghead.Result{}, err
	}
	s.uploads = map[string]string{}
	for name, up := range map[string]io.Reader{"source_image": in.SourceImage.Body, "driven_audio": in.DrivenAudio.Body} {
		if up != nil {
			data, _ := io.ReadAll(up)
			s.uploads[name] = string(data)
		}
	}
	if s.err != nil {
		return talkinghead.Result{}, s.err
	}
	return talkinghead.Result{Tag: "tag-1", VideoPath: s.video}, nil
}

func (s *stubTalkingHead) Speak(_ context.Context, text string) (talkinghead.SpeechResult, error) {
	if !s.speech {
		return talkinghead.SpeechResult{}, coqui.ErrDisabled
	}
	return talkinghead.SpeechResult{Tag: "tts-1", AudioPath: "/tmp/results/tts/tts-1.wav"}, nil
}

func (s *stubTalkingHead) SpeechEnabled() bool { return s.speech }

type stubStudio struct {
	res studio.Result
	err error
}

func (s *stubStudio) Run(_ context.Context, in studio.Input) (studio.Result, error) {
	if !in.FaceVideo.Present() {
		return studio.Result{Steps: []studio.Step{{Level: studio.LevelWarning, Message: studio.MsgMissingVideo}}},
			studio.ErrInvalidInput
	}
	return s.res, s.err
}

type testEnv struct {
	cfg    *config.Config
	server *Server
	th     *stubTalkingHead
	st     *stubStudio
	store  *jobs.Store
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ResultsDir = filepath.Join(root, "results")
	cfg.Paths.UploadDir = filepath.Join(root, "uploads")
	cfg.Paths.GeneratedDir = filepath.Join(root, "generated")
	cfg.Paths.StateDir = filepath.Join(root, "state")
	cfg.Paths.LogDir = filepath.Join(root, "state", "logs")
	if mutate != nil {
		mutate(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	store, err := jobs.Open(cfg.JobsDBPath())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	env := &testEnv{
		cfg:   &cfg,
		th:    &stubTalkingHead{video: filepath.Join(cfg.Paths.ResultsDir, "tag-1", "out.mp4")},
		st:    &stubStudio{},
		store: store,
	}
	srv, err := New(&cfg, Deps{
		TalkingHead: env.th,
		Studio:      env.st,
		Jobs:        store,
		Status: func(context.Context) preflight.Report {
			return preflight.Report{Checks: []preflight.Result{{Name: "Results directory", Passed: true}}}
		},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	env.server = srv
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".bin")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, body %s", ct, rec.Body.String())
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func generateRequest(t *testing.T, fields map[string]string) *http.Request {
	body, ct := multipartBody(t, fields, map[string]string{"source_image": "png", "driven_audio": "wav"})
	req := httptest.NewRequest(http.MethodPost, "/api/generate", body)
	req.Header.Set("Content-Type", ct)
	return req
}

func TestGenerateSuccessUsesAPIDefaults(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(generateRequest(t, map[string]string{"size": "512", "still_mode": "true"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["status"] != "ok" || body["result_id"] != "tag-1" || body["video_path"] != env.th.video {
		t.Fatalf("unexpected body %v", body)
	}
	got := env.th.inputs[0].Options
	want := sadtalker.Options{Preprocess: "crop", StillMode: true, BatchSize: 1, Size: 512}
	if got != want {
		t.Fatalf("options = %+v, want %+v", got, want)
	}
	if env.th.uploads["source_image"] != "png" || env.th.uploads["driven_audio"] != "wav" {
		t.Fatalf("uploads = %v", env.th.uploads)
	}
}

func TestGenerateRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T) *http.Request
	}{
		{"malformed multipart", func(t *testing.T) *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader("--nope\r\ngarbage"))
			req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
			return req
		}},
		{"not multipart", func(t *testing.T) *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader("size=256"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			return req
		}},
		{"unparsable batch size", func(t *testing.T) *http.Request {
			return generateRequest(t, map[string]string{"batch_size": "two"})
		}},
		{"invalid pose style", func(t *testing.T) *http.Request {
			return generateRequest(t, map[string]string{"pose_style": "99"})
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.do(tc.build(t))
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			body := decode(t, rec)
			if body["status"] != "error" || body["message"] == "" {
				t.Fatalf("unexpected body %v", body)
			}
		})
	}
}

type recordingGenerator struct {
	calls []sadtalker.Request
}

func (g *recordingGenerator) Generate(_ context.Context, req sadtalker.Request) (string, error) {
	g.calls = append(g.calls, req)
	return filepath.Join(req.ResultDir, "out.mp4"), nil
}

func TestGenerateRequiresBothUploads(t *testing.T) {
	for name, files := range map[string]map[string]string{
		"missing source image": {"driven_audio": "wav"},
		"missing driven audio": {"source_image": "png"},
		"no files":             {},
	} {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			gen := &recordingGenerator{}
			srv, err := New(env.cfg, Deps{
				TalkingHead: talkinghead.NewService(env.cfg, gen, nil),
				Studio:      env.st,
				Jobs:        env.store,
			}, nil)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			body, ct := multipartBody(t, map[string]string{"size": "256"}, files)
			req := httptest.NewRequest(http.MethodPost, "/api/generate", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if out := decode(t, rec); out["status"] != "error" || out["message"] == "" {
				t.Fatalf("unexpected body %v", out)
			}
			if len(gen.calls) != 0 {
				t.Fatalf("model ran without both uploads: %+v", gen.calls)
			}
		})
	}
}

func TestGenerateModelFailureReturns500(t *testing.T) {
	env := newTestEnv(t, nil)
	env.th.err = errors.New("external tool error: sadtalker: exit status 1: CUDA out of memory")
	rec := env.do(generateRequest(t, nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != "error" || !strings.Contains(body["message"].(string), "CUDA out of memory") {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestGenerateMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/generate", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
	if decode(t, rec)["status"] != "error" || rec.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("unexpected response %s", rec.Body.String())
	}
}

func TestTTSDisabledReturns503(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/tts", strings.NewReader("text=hello"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := env.do(req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	env.th.speech = true
	req = httptest.NewRequest(http.MethodPost, "/api/tts", strings.NewReader("text=hello"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = env.do(req)
	if rec.Code != http.StatusOK || decode(t, rec)["audio_path"] != "/tmp/results/tts/tts-1.wav" {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestStudioEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	body, ct := multipartBody(t, map[string]string{"script": "hello"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/studio", body)
	req.Header.Set("Content-Type", ct)
	rec := env.do(req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	steps := decode(t, rec)["steps"].([]any)
	if len(steps) != 1 || steps[0].(map[string]any)["message"] != studio.MsgMissingVideo {
		t.Fatalf("unexpected steps %v", steps)
	}

	env.st.res = studio.Result{RunID: "VIDEO-1", FinalVideo: "/gen/VIDEO-1-final_lipsynced_video.mp4", Steps: []studio.Step{{Level: studio.LevelSuccess, Message: studio.MsgLipSyncDone}}}
	body, ct = multipartBody(t, map[string]string{"script": "hello", "language": "hi"}, map[string]string{"face_video": "mp4"})
	req = httptest.NewRequest(http.MethodPost, "/api/studio", body)
	req.Header.Set("Content-Type", ct)
	rec = env.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decode(t, rec); got["result_id"] != "VIDEO-1" || got["video_path"] != env.st.res.FinalVideo {
		t.Fatalf("unexpected body %v", got)
	}

	env.st.err = errors.New("wav2lip: exit status 1")
	body, ct = multipartBody(t, map[string]string{"script": "hello"}, map[string]string{"face_video": "mp4"})
	req = httptest.NewRequest(http.MethodPost, "/api/studio", body)
	req.Header.Set("Content-Type", ct)
	rec = env.do(req)
	if rec.Code != http.StatusInternalServerError || decode(t, rec)["status"] != "error" {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestAuthProtectsAPI(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Server.APIToken = "secret" })

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	if rec := env.do(req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d", rec.Code)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = env.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode(t, rec); body["ready"] != true || body["speech_enabled"] != false {
		t.Fatalf("unexpected status body %v", body)
	}

	if rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil)); rec.Code != http.StatusOK {
		t.Fatalf("UI should not require a token, got %d", rec.Code)
	}
}

func TestJobsEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	if _, err := env.store.Begin(ctx, jobs.KindStudio, "VIDEO-1", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := env.store.Begin(ctx, jobs.KindTTS, "tts-1", nil); err != nil {
		t.Fatal(err)
	}

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/jobs?kind=studio", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	list := decode(t, rec)["jobs"].([]any)
	if len(list) != 1 || list[0].(map[string]any)["id"] != "VIDEO-1" {
		t.Fatalf("unexpected jobs %v", list)
	}

	if rec := env.do(httptest.NewRequest(http.MethodGet, "/api/jobs?kind=bogus", nil)); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bogus kind status = %d", rec.Code)
	}
	if rec := env.do(httptest.NewRequest(http.MethodGet, "/api/jobs/tts-1", nil)); rec.Code != http.StatusOK || decode(t, rec)["kind"] != "tts" {
		t.Fatalf("job lookup failed: %d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("missing job status = %d", rec.Code)
	}
}

func TestFilesServesOnlyKnownRoots(t *testing.T) {
	env := newTestEnv(t, nil)
	video := filepath.Join(env.cfg.Paths.ResultsDir, "tag-1", "out file.mp4")
	if err := os.MkdirAll(filepath.Dir(video), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(video, []byte("mp4"), 0o644); err != nil {
		t.Fatal(err)
	}
	secret := filepath.Join(env.cfg.Paths.StateDir, "secret.txt")
	if err := os.WriteFile(secret, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	url := env.server.fileURL(video)
	if url != "/files/results/tag-1/out%20file.mp4" {
		t.Fatalf("fileURL = %q", url)
	}
	rec := env.do(httptest.NewRequest(http.MethodGet, url, nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "mp4" {
		t.Fatalf("status = %d body %q", rec.Code, rec.Body.String())
	}

	if env.server.fileURL(secret) != "" {
		t.Fatal("state directory must not be served")
	}
	for _, path := range []string{"/files/state/secret.txt", "/files/results/", "/files/results/tag-1"} {
		if rec := env.do(httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusNotFound {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}
}

func TestUIPages(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `action="/ui/generate"`) {
		t.Fatalf("index: %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `action="/ui/tts"`) {
		t.Fatal("TTS panel should be hidden when speech is disabled")
	}

	env.th.speech = true
	rec = env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), `action="/ui/tts"`) {
		t.Fatal("TTS panel should be shown when speech is enabled")
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/studio", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Prama Vodcast") {
		t.Fatalf("studio page: %d", rec.Code)
	}

	if rec := env.do(httptest.NewRequest(http.MethodGet, "/nope", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown page status = %d", rec.Code)
	}
}

func TestUIGenerateRendersVideo(t *testing.T) {
	env := newTestEnv(t, nil)
	body, ct := multipartBody(t, map[string]string{"size": "256", "preprocess": "full"}, map[string]string{"source_image": "png", "driven_audio": "wav"})
	req := httptest.NewRequest(http.MethodPost, "/ui/generate", body)
	req.Header.Set("Content-Type", ct)
	rec := env.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `src="/files/results/tag-1/out.mp4"`) {
		t.Fatalf("expected video player, got %s", rec.Body.String())
	}
	if env.th.inputs[0].Options.BatchSize != env.cfg.SadTalker.BatchSize {
		t.Fatalf("UI should use configured batch size, got %d", env.th.inputs[0].Options.BatchSize)
	}
}

func TestUIStudioRendersSteps(t *testing.T) {
	env := newTestEnv(t, nil)
	env.st.err = errors.New("tts failed")
	env.st.res = studio.Result{RunID: "VIDEO-1", Steps: []studio.Step{
		{Level: studio.LevelSuccess, Message: studio.MsgVideoUploaded},
		{Level: studio.LevelError, Message: studio.MsgTTSFailed},
	}}
	body, ct := multipartBody(t, map[string]string{"script": "hello"}, map[string]string{"face_video": "mp4"})
	req := httptest.NewRequest(http.MethodPost, "/ui/studio", body)
	req.Header.Set("Content-Type", ct)
	rec := env.do(req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	html := rec.Body.String()
	if !strings.Contains(html, `class="step error">TTS audio generation failed.`) || !strings.Contains(html, "Video uploaded.") {
		t.Fatalf("steps missing from page: %s", html)
	}
}

func TestPanicsBecomeJSON500(t *testing.T) {
	env := newTestEnv(t, nil)
	handler := env.server.withRecover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusInternalServerError || decode(t, rec)["message"] != "internal server error" {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := env.do(req)
	if rec.Header().Get(requestIDHeader) != "req-42" {
		t.Fatalf("request id = %q", rec.Header().Get(requestIDHeader))
	}
	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}
}
