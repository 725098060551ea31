package voiceclone

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"prama/internal/config"
	"prama/internal/media/audio"
	"prama/internal/services"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	return &cfg
}

func writeWAV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, 24000, 16, 1, 1)
	buf := &goaudio.IntBuffer{Data: make([]int, 12000), Format: &goaudio.Format{SampleRate: 24000, NumChannels: 1}}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

func flagValue(args []string, name string) string {
	for i, arg := range args {
		if arg == name && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestSynthesizeRunsBridge(t *testing.T) {
	cfg := testConfig(t)
	out := filepath.Join(t.TempDir(), "run-output_audio.wav")
	var seen services.Command
	runner := func(_ context.Context, cmd services.Command) ([]byte, error) {
		seen = cmd
		return nil, writeWAV(flagValue(cmd.Args, "--output"))
	}
	svc := NewService(cfg, nil, WithCommandRunner(runner))

	info, err := svc.Synthesize(context.Background(), Request{
		Text:      "नमस्ते, welcome to the show",
		Reference: "/u/ref.wav",
		Output:    out,
		Language:  "Hindi",
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if info.SampleRate != 24000 || info.Duration.Seconds() != 0.5 {
		t.Fatalf("unexpected wav info %+v", info)
	}

	script := filepath.Join(cfg.BridgeDir(), bridgeName)
	if seen.Args[0] != script {
		t.Fatalf("expected bridge script first, got %v", seen.Args)
	}
	written, err := os.ReadFile(script)
	if err != nil || !bytes.Equal(written, bridgeScript) {
		t.Fatalf("bridge script not written correctly: %v", err)
	}
	if got := flagValue(seen.Args, "--language"); got != "hi" {
		t.Fatalf("language = %q, want hi", got)
	}
	if got := flagValue(seen.Args, "--model"); got != cfg.VoiceClone.Model {
		t.Fatalf("model = %q", got)
	}
	text, err := os.ReadFile(flagValue(seen.Args, "--text-file"))
	if err != nil || string(text) != "नमस्ते, welcome to the show" {
		t.Fatalf("script file = %q (%v)", text, err)
	}
}

func TestSynthesizeRejectsInvalidOutput(t *testing.T) {
	cfg := testConfig(t)
	out := filepath.Join(t.TempDir(), "speech.wav")
	runner := func(_ context.Context, cmd services.Command) ([]byte, error) {
		return nil, os.WriteFile(out, []byte("garbage"), 0o644)
	}
	svc := NewService(cfg, nil, WithCommandRunner(runner))
	_, err := svc.Synthesize(context.Background(), Request{Text: "hi", Reference: "r.wav", Output: out})
	if !errors.Is(err, audio.ErrInvalidWAV) {
		t.Fatalf("expected ErrInvalidWAV, got %v", err)
	}
}

func TestSynthesizeEmptyScript(t *testing.T) {
	svc := NewService(testConfig(t), nil)
	_, err := svc.Synthesize(context.Background(), Request{Text: "  ", Reference: "r.wav", Output: "o.wav"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSynthesizeToolFailure(t *testing.T) {
	cfg := testConfig(t)
	runner := func(context.Context, services.Command) ([]byte, error) {
		return nil, errors.New("python: exit status 1: ModuleNotFoundError: chatterbox")
	}
	svc := NewService(cfg, nil, WithCommandRunner(runner))
	_, err := svc.Synthesize(context.Background(), Request{Text: "hello", Reference: "r.wav", Output: filepath.Join(t.TempDir(), "o.wav")})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
