package studio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"prama/internal/config"
	"prama/internal/fileutil"
	"prama/internal/media/audio"
	"prama/internal/media/ffprobe"
	"prama/internal/services"
	"prama/internal/services/voiceclone"
)

type fakeStages struct {
	calls      []string
	probeErr   error
	extractErr error
	denoiseErr error
	ttsErr     error
	syncErr    error
	ttsReq     voiceclone.Request
}

func (f *fakeStages) RequireVideoWithAudio(_ context.Context, path string) (ffprobe.Result, error) {
	f.calls = append(f.calls, "probe")
	return ffprobe.Result{}, f.probeErr
}

func (f *fakeStages) ExtractReference(_ context.Context, video, dest string) error {
	f.calls = append(f.calls, "extract")
	return f.extractErr
}

func (f *fakeStages) Denoise(_ context.Context, src, dest string) error {
	f.calls = append(f.calls, "denoise")
	return f.denoiseErr
}

func (f *fakeStages) Synthesize(_ context.Context, req voiceclone.Request) (audio.WAVInfo, error) {
	f.calls = append(f.calls, "tts")
	f.ttsReq = req
	if f.ttsErr != nil {
		return audio.WAVInfo{}, f.ttsErr
	}
	return audio.WAVInfo{SampleRate: 24000, Channels: 1, BitDepth: 16, Duration: 3 * time.Second}, nil
}

func (f *fakeStages) Sync(_ context.Context, face, speech, out string) (string, error) {
	f.calls = append(f.calls, "lipsync")
	if f.syncErr != nil {
		return "", f.syncErr
	}
	return out, nil
}

func (f *fakeStages) stages() Stages {
	return Stages{Prober: f, Audio: f, Synthesizer: f, LipSync: f}
}

func newTestPipeline(t *testing.T, f *fakeStages, denoise bool) (*Pipeline, *config.Config) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.UploadDir = filepath.Join(root, "uploads")
	cfg.Paths.GeneratedDir = filepath.Join(root, "generated")
	cfg.VoiceClone.Denoise = denoise
	clock := func() time.Time { return time.Date(2026, 10, 14, 9, 30, 15, 0, time.UTC) }
	return NewPipeline(&cfg, f.stages(), nil, WithClock(clock)), &cfg
}

func video(name string) fileutil.Upload {
	return fileutil.Upload{Name: name, Body: strings.NewReader("mp4-bytes")}
}

func messages(steps []Step) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Message)
	}
	return out
}

func TestRunProducesLipSyncedVideo(t *testing.T) {
	f := &fakeStages{}
	p, cfg := newTestPipeline(t, f, true)

	res, err := p.Run(context.Background(), Input{FaceVideo: video("Me.MOV"), Script: "  Hello there  ", Language: "Hindi"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.Join(f.calls, ","); got != "probe,extract,denoise,tts,lipsync" {
		t.Fatalf("stage order = %s", got)
	}
	if !strings.HasPrefix(res.RunID, "VIDEO-2026-10-14-09-30-15-") {
		t.Fatalf("RunID = %s", res.RunID)
	}
	if res.FinalVideo != filepath.Join(cfg.Paths.GeneratedDir, res.RunID+"-final_lipsynced_video.mp4") {
		t.Fatalf("FinalVideo = %s", res.FinalVideo)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.UploadDir, res.RunID+".mov")); err != nil {
		t.Fatalf("face video not saved: %v", err)
	}
	if f.ttsReq.Text != "Hello there" || f.ttsReq.Language != "hi" {
		t.Fatalf("unexpected tts request %+v", f.ttsReq)
	}
	if !strings.HasSuffix(f.ttsReq.Reference, "-ref_audio_denoised.wav") {
		t.Fatalf("expected denoised reference, got %s", f.ttsReq.Reference)
	}
	if res.Duration != 3 {
		t.Fatalf("Duration = %v", res.Duration)
	}
	msgs := messages(res.Steps)
	if msgs[0] != MsgVideoUploaded || msgs[len(msgs)-1] != MsgLipSyncDone {
		t.Fatalf("unexpected steps %v", msgs)
	}
}

func TestRunSkipsDenoiseWhenDisabled(t *testing.T) {
	f := &fakeStages{}
	p, _ := newTestPipeline(t, f, false)
	if _, err := p.Run(context.Background(), Input{FaceVideo: video("a.mp4"), Script: "hi"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.Join(f.calls, ","); got != "probe,extract,tts,lipsync" {
		t.Fatalf("stage order = %s", got)
	}
	if !strings.HasSuffix(f.ttsReq.Reference, "-ref_audio.wav") || f.ttsReq.Language != "en" {
		t.Fatalf("unexpected tts request %+v", f.ttsReq)
	}
}

func TestRunRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		msg  string
	}{
		{"no video", Input{Script: "hello"}, MsgMissingVideo},
		{"blank script", Input{FaceVideo: video("a.mp4"), Script: " \n\t"}, MsgMissingScript},
		{"wrong type", Input{FaceVideo: video("a.avi"), Script: "hello"}, MsgUnsupported},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeStages{}
			p, _ := newTestPipeline(t, f, true)
			res, err := p.Run(context.Background(), tc.in)
			if !errors.Is(err, ErrInvalidInput) || !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if len(res.Steps) != 1 || res.Steps[0].Message != tc.msg || res.Steps[0].Level != LevelWarning {
				t.Fatalf("unexpected steps %+v", res.Steps)
			}
			if len(f.calls) != 0 {
				t.Fatalf("no stage should run, got %v", f.calls)
			}
		})
	}
}

func TestRunStopsBeforeLipSync(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name      string
		setup     func(*fakeStages)
		wantCalls string
		wantLast  string
	}{
		{"probe fails", func(f *fakeStages) { f.probeErr = ffprobe.ErrNoAudio }, "probe", ""},
		{"extraction fails", func(f *fakeStages) { f.extractErr = boom }, "probe,extract", ""},
		{"denoise fails", func(f *fakeStages) { f.denoiseErr = boom }, "probe,extract,denoise", MsgTTSFailed},
		{"tts fails", func(f *fakeStages) { f.ttsErr = boom }, "probe,extract,denoise,tts", MsgTTSFailed},
		{"lipsync fails", func(f *fakeStages) { f.syncErr = boom }, "probe,extract,denoise,tts,lipsync", MsgLipSyncFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeStages{}
			tc.setup(f)
			p, _ := newTestPipeline(t, f, true)
			res, err := p.Run(context.Background(), Input{FaceVideo: video("a.mp4"), Script: "hello"})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := strings.Join(f.calls, ","); got != tc.wantCalls {
				t.Fatalf("calls = %s, want %s", got, tc.wantCalls)
			}
			last := res.Steps[len(res.Steps)-1]
			if last.Level != LevelError {
				t.Fatalf("last step should be an error, got %+v", last)
			}
			if tc.wantLast != "" && last.Message != tc.wantLast {
				t.Fatalf("last message = %q, want %q", last.Message, tc.wantLast)
			}
			if res.FinalVideo != "" {
				t.Fatalf("FinalVideo should be empty, got %s", res.FinalVideo)
			}
		})
	}
}
