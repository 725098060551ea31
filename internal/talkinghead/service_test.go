package talkinghead

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"prama/internal/config"
	"prama/internal/fileutil"
	"prama/internal/jobs"
	"prama/internal/services"
	"prama/internal/services/coqui"
	"prama/internal/services/sadtalker"
)

type stubGenerator struct {
	requests []sadtalker.Request
	err      error
}

func (g *stubGenerator) Generate(_ context.Context, req sadtalker.Request) (string, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return "", g.err
	}
	return filepath.Join(req.ResultDir, "2026_10_14_12.00.00.mp4"), nil
}

type stubSpeaker struct {
	enabled bool
	texts   []string
}

func (s *stubSpeaker) Enabled() bool { return s.enabled }

func (s *stubSpeaker) Speak(_ context.Context, text, out string) error {
	s.texts = append(s.texts, text)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	return os.WriteFile(out, []byte("RIFF"), 0o644)
}

type countingLock struct {
	acquired int
	released int
}

func (l *countingLock) Acquire(context.Context) (func(), error) {
	l.acquired++
	return func() { l.released++ }, nil
}

func newTestService(t *testing.T, gen Generator, opts ...Option) (*Service, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.ResultsDir = filepath.Join(t.TempDir(), "results")
	opts = append([]Option{WithTagGenerator(func() string { return "tag-1" })}, opts...)
	return NewService(&cfg, gen, nil, opts...), &cfg
}

func upload(name, body string) fileutil.Upload {
	return fileutil.Upload{Name: name, Body: strings.NewReader(body)}
}

func TestGenerateStoresUploadsAndRunsModel(t *testing.T) {
	gen := &stubGenerator{}
	lock := &countingLock{}
	svc, cfg := newTestService(t, gen, WithLock(lock))

	res, err := svc.Generate(context.Background(), Input{
		SourceImage: upload("../../face.png", "png"),
		DrivenAudio: upload("voice.wav", "wav"),
		Options:     sadtalker.APIDefaults(),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	base := filepath.Join(cfg.Paths.ResultsDir, "tag-1")
	if res.Tag != "tag-1" || res.VideoPath != filepath.Join(base, "2026_10_14_12.00.00.mp4") {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(gen.requests) != 1 {
		t.Fatalf("expected one model call, got %d", len(gen.requests))
	}
	req := gen.requests[0]
	if req.ResultDir != base {
		t.Fatalf("ResultDir = %s, want %s", req.ResultDir, base)
	}
	if req.SourceImage != filepath.Join(base, "input", "face.png") {
		t.Fatalf("SourceImage = %s", req.SourceImage)
	}
	if data, err := os.ReadFile(req.DrivenAudio); err != nil || string(data) != "wav" {
		t.Fatalf("driven audio not saved: %q %v", data, err)
	}
	if lock.acquired != 1 || lock.released != 1 {
		t.Fatalf("lock acquired=%d released=%d", lock.acquired, lock.released)
	}
}

func TestGenerateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want error
	}{
		{"missing image", Input{DrivenAudio: upload("a.wav", "x"), Options: sadtalker.APIDefaults()}, ErrInvalidInput},
		{"missing audio", Input{SourceImage: upload("f.png", "x"), Options: sadtalker.APIDefaults()}, ErrInvalidInput},
		{"empty image", Input{SourceImage: upload("f.png", ""), DrivenAudio: upload("a.wav", "x"), Options: sadtalker.APIDefaults()}, ErrInvalidInput},
		{"bad size", Input{SourceImage: upload("f.png", "x"), DrivenAudio: upload("a.wav", "x"), Options: sadtalker.Options{Preprocess: "crop", BatchSize: 1, Size: 300}}, sadtalker.ErrInvalidOptions},
		{"foreign audio path", Input{SourceImage: upload("f.png", "x"), DrivenAudioPath: "/etc/passwd", Options: sadtalker.APIDefaults()}, ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen := &stubGenerator{}
			svc, _ := newTestService(t, gen)
			_, err := svc.Generate(context.Background(), tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation marker, got %v", err)
			}
			if len(gen.requests) != 0 {
				t.Fatal("model must not run for invalid input")
			}
		})
	}
}

func TestGenerateRecordsFailure(t *testing.T) {
	store, err := jobs.Open(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	gen := &stubGenerator{err: errors.New("sadtalker: exit status 1")}
	svc, _ := newTestService(t, gen, WithTracker(jobs.NewTracker(store, nil, nil)))
	_, err = svc.Generate(context.Background(), Input{
		SourceImage: upload("f.png", "x"),
		DrivenAudio: upload("a.wav", "x"),
		Options:     sadtalker.APIDefaults(),
	})
	if err == nil {
		t.Fatal("expected model failure")
	}
	job, err := store.Get(context.Background(), "tag-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != jobs.StatusFailed || !strings.Contains(job.ErrorMessage, "exit status 1") {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestSpeakThenGenerateFromGeneratedAudio(t *testing.T) {
	gen := &stubGenerator{}
	speaker := &stubSpeaker{enabled: true}
	svc, cfg := newTestService(t, gen, WithSpeaker(speaker))

	speech, err := svc.Speak(context.Background(), "namaste")
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if speech.AudioPath != filepath.Join(cfg.Paths.ResultsDir, "tts", "tag-1.wav") {
		t.Fatalf("AudioPath = %s", speech.AudioPath)
	}

	if _, err := svc.Generate(context.Background(), Input{
		SourceImage:     upload("f.png", "x"),
		DrivenAudioPath: speech.AudioPath,
		Options:         sadtalker.APIDefaults(),
	}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := filepath.Join(cfg.Paths.ResultsDir, "tag-1", "input", "tag-1.wav")
	if gen.requests[0].DrivenAudio != want {
		t.Fatalf("DrivenAudio = %s, want %s", gen.requests[0].DrivenAudio, want)
	}
}

func TestSpeakDisabled(t *testing.T) {
	svc, _ := newTestService(t, &stubGenerator{}, WithSpeaker(&stubSpeaker{enabled: false}))
	if svc.SpeechEnabled() {
		t.Fatal("expected speech disabled")
	}
	if _, err := svc.Speak(context.Background(), "hello"); !errors.Is(err, coqui.ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if got := services.HTTPStatus(coqui.ErrDisabled); got != 503 {
		t.Fatalf("HTTPStatus = %d", got)
	}
}
