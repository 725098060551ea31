package translate

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"prama/internal/services/gtranslate"
)

type stubBackend struct {
	detected  string
	detectErr error
	translate func(text, src, dst string) (gtranslate.Result, error)
	calls     []string
}

func (s *stubBackend) Detect(_ context.Context, text string) (string, error) {
	return s.detected, s.detectErr
}

func (s *stubBackend) Translate(_ context.Context, text, src, dst string) (gtranslate.Result, error) {
	s.calls = append(s.calls, src+">"+dst)
	if s.translate != nil {
		return s.translate(text, src, dst)
	}
	return gtranslate.Result{Text: "translated: " + text, Source: src}, nil
}

func TestTranslateTextHindi(t *testing.T) {
	backend := &stubBackend{detected: "hi"}
	tr := New(backend, "", "", nil)

	result, err := tr.TranslateText(context.Background(), "नमस्ते, आप कैसे हैं?")
	if err != nil {
		t.Fatalf("TranslateText: %v", err)
	}
	if result.Warning != "" {
		t.Fatalf("unexpected warning %q", result.Warning)
	}
	if len(backend.calls) != 1 || backend.calls[0] != "hi>en" {
		t.Fatalf("expected hi>en translation, got %v", backend.calls)
	}
}

func TestTranslateTextWarnsForNonHindi(t *testing.T) {
	backend := &stubBackend{detected: "fr"}
	tr := New(backend, "hi", "en", nil)

	result, err := tr.TranslateText(context.Background(), "Bonjour")
	if err != nil {
		t.Fatalf("TranslateText: %v", err)
	}
	if result.Warning != "Detected language is 'fr', not Hindi" {
		t.Fatalf("warning = %q", result.Warning)
	}
	if result.Detected != "fr" || result.Text != "translated: Bonjour" {
		t.Fatalf("unexpected result %+v", result)
	}
	if backend.calls[0] != "auto>en" {
		t.Fatalf("expected auto source detection, got %v", backend.calls)
	}
}

func TestTranslateTextPropagatesErrors(t *testing.T) {
	tr := New(&stubBackend{detectErr: errors.New("network down")}, "", "", nil)
	if _, err := tr.TranslateText(context.Background(), "नमस्ते"); err == nil || !strings.Contains(err.Error(), "network down") {
		t.Fatalf("expected detect error, got %v", err)
	}
	if _, err := tr.TranslateText(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank text")
	}
}

func TestTranslateFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.txt")
	output := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(input, []byte("भारत एक विविधताओं से भरा देश है।"), 0o644); err != nil {
		t.Fatal(err)
	}
	tr := New(&stubBackend{detected: "hi"}, "", "", nil)
	result, err := tr.TranslateFile(context.Background(), input, output)
	if err != nil {
		t.Fatalf("TranslateFile: %v", err)
	}
	written, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if string(written) != result.Text {
		t.Fatalf("output file = %q, want %q", written, result.Text)
	}
}

func TestTranslateFileMissing(t *testing.T) {
	tr := New(&stubBackend{detected: "hi"}, "", "", nil)
	missing := filepath.Join(t.TempDir(), "nope.txt")
	_, err := tr.TranslateFile(context.Background(), missing, "")
	var fileErr *FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("expected FileError, got %v", err)
	}
	if err.Error() != "Error: File '"+missing+"' not found" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestInteractive(t *testing.T) {
	backend := &stubBackend{detected: "hi"}
	tr := New(backend, "", "", nil)
	in := strings.NewReader("नमस्ते\n\n  QUIT \nnever read\n")
	var out bytes.Buffer

	if err := tr.Interactive(context.Background(), in, &out, true); err != nil {
		t.Fatalf("Interactive: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"Hindi to English Translator",
		"Enter Hindi text: ",
		"English: translated: नमस्ते",
		"Please enter some text to translate",
		"Goodbye!",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
	if len(backend.calls) != 1 {
		t.Fatalf("expected one translation, got %d", len(backend.calls))
	}
}

func TestInteractiveEOFWithoutPrompt(t *testing.T) {
	tr := New(&stubBackend{detected: "en"}, "", "", nil)
	var out bytes.Buffer
	if err := tr.Interactive(context.Background(), strings.NewReader("hello"), &out, false); err != nil {
		t.Fatalf("Interactive: %v", err)
	}
	text := out.String()
	if strings.Contains(text, "Enter Hindi text") {
		t.Fatal("prompt printed for non-terminal input")
	}
	if !strings.Contains(text, "Warning: Detected language is 'en', not Hindi") || !strings.HasSuffix(text, "Goodbye!\n") {
		t.Fatalf("unexpected output:\n%s", text)
	}
}
