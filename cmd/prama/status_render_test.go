package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"prama/internal/deps"
	"prama/internal/preflight"
	"prama/internal/studio"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusError, "binary \"ffmpeg\" not found", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "FFmpeg:", "[ERROR] binary \"ffmpeg\" not found")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusOK, "Ready", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestDependencyLines(t *testing.T) {
	statuses := []deps.Status{
		{Name: "FFmpeg", Command: "ffmpeg", Available: false, Detail: "binary \"ffmpeg\" not found"},
		{Name: "SadTalker Python", Command: "python", Available: true},
		{Name: "Coqui TTS", Command: "tts", Optional: true, Available: false},
	}
	lines := dependencyLines(statuses, false)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[ERROR] Missing FFmpeg") {
		t.Fatalf("expected summary line first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ERROR] binary \"ffmpeg\" not found") {
		t.Fatalf("expected error detail, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "[OK] Ready (command: python)") {
		t.Fatalf("expected ready detail, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "[WARN] not available") {
		t.Fatalf("expected optional warning, got %q", lines[3])
	}

	ready := dependencyLines(statuses[1:], false)
	if !strings.Contains(ready[0], "[OK] All required dependencies available") {
		t.Fatalf("expected OK summary, got %q", ready[0])
	}
}

func TestStepLines(t *testing.T) {
	lines := stepLines([]studio.Step{
		{Level: studio.LevelSuccess, Message: studio.MsgVideoUploaded},
		{Level: studio.LevelError, Message: studio.MsgTTSFailed},
	}, false)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	requireContains(t, lines[0], "Step 1:")
	requireContains(t, lines[0], "[OK] "+studio.MsgVideoUploaded)
	requireContains(t, lines[1], "[ERROR] "+studio.MsgTTSFailed)
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var report preflight.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if len(report.Dependencies) == 0 || len(report.Checks) == 0 {
		t.Fatalf("expected dependencies and checks, got %+v", report)
	}

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "== Preflight ==")
	requireContains(t, out, "Ready: no")
}

func TestStudioRequiresScript(t *testing.T) {
	env := setupCLITestEnv(t)
	video := filepath.Join(env.baseDir, "face.mp4")
	writeFile(t, video, "mp4")

	_, _, err := runCLI(t, []string{"studio", "--video", video}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), studio.MsgMissingScript) {
		t.Fatalf("expected missing script error, got %v", err)
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notification not sent")
}
