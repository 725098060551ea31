package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"prama/internal/config"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

type envOption func(*strings.Builder)

func withTranslateURL(url string) envOption {
	return func(b *strings.Builder) {
		fmt.Fprintf(b, "\n[translate]\nbase_url = %q\nretry_attempts = 1\n", url)
	}
}

func withSadTalkerPython(python string) envOption {
	return func(b *strings.Builder) {
		fmt.Fprintf(b, "\n[sadtalker]\npython = %q\n", python)
	}
}

func setupCLITestEnv(t *testing.T, opts ...envOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("PRAMA_API_TOKEN", "")
	t.Setenv("PRAMA_NTFY_TOPIC", "")
	t.Setenv("PRAMA_TRANSLATE_BASE_URL", "")

	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\nresults_dir = %q\nupload_dir = %q\ngenerated_dir = %q\nstate_dir = %q\nlog_dir = %q\n",
		filepath.Join(base, "results"),
		filepath.Join(base, "uploads"),
		filepath.Join(base, "generated"),
		filepath.Join(base, "state"),
		filepath.Join(base, "logs"),
	)
	fmt.Fprintf(&b, "\n[tts]\nenabled = false\n")
	for _, opt := range opts {
		opt(&b)
	}

	configPath := filepath.Join(base, "config.toml")
	if err := os.WriteFile(configPath, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, args, configPath, nil)
}

func runCLIWithInput(t *testing.T, args []string, configPath string, stdin io.Reader) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
