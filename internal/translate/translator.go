package translate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"prama/internal/language"
	"prama/internal/logging"
	"prama/internal/services/gtranslate"
)

// Backend detects and translates text.
type Backend interface {
	Detect(ctx context.Context, text string) (string, error)
	Translate(ctx context.Context, text, src, dst string) (gtranslate.Result, error)
}

// Translation is the outcome of one request.
type Translation struct {
	Text     string
	Detected string
	Warning  string
}

// Translator translates from Source into Target.
type Translator struct {
	backend Backend
	source  string
	target  string
	logger  *slog.Logger
}

// New builds a Translator. Empty source and target default to hi and en.
func New(backend Backend, source, target string, logger *slog.Logger) *Translator {
	if source = language.ToISO2(source); source == "" {
		source = "hi"
	}
	if target = language.ToISO2(target); target == "" {
		target = "en"
	}
	return &Translator{
		backend: backend,
		source:  source,
		target:  target,
		logger:  logging.NewComponentLogger(logger, "translate"),
	}
}

// TranslateText detects the language of text and translates it to English.
func (t *Translator) TranslateText(ctx context.Context, text string) (Translation, error) {
	if strings.TrimSpace(text) == "" {
		return Translation{}, errors.New("no text to translate")
	}
	detected, err := t.backend.Detect(ctx, text)
	if err != nil {
		return Translation{}, err
	}
	detected = strings.ToLower(strings.TrimSpace(detected))

	src := t.source
	var warning string
	if !language.Equal(detected, t.source) {
		src = gtranslate.AutoDetect
		warning = fmt.Sprintf("Detected language is '%s', not %s", detected, language.DisplayName(t.source))
		logging.WarnWithContext(t.logger, "input is not in the expected language", "translate_language_mismatch",
			logging.String("detected", detected),
			logging.String("expected", t.source),
			logging.String(logging.FieldImpact, "translated with automatic source detection"),
		)
	}

	result, err := t.backend.Translate(ctx, text, src, t.target)
	if err != nil {
		return Translation{}, err
	}
	t.logger.Debug("translation completed",
		logging.String("detected", detected),
		logging.Int("characters", len([]rune(text))),
	)
	return Translation{Text: result.Text, Detected: detected, Warning: warning}, nil
}

// FileError reports an input file that could not be read.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	if errors.Is(e.Err, fs.ErrNotExist) {
		return fmt.Sprintf("Error: File '%s' not found", e.Path)
	}
	return fmt.Sprintf("Error processing file: %v", e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// TranslateFile translates the UTF-8 contents of input. When output is set the
// translation is written there as well as returned.
func (t *Translator) TranslateFile(ctx context.Context, input, output string) (Translation, error) {
	content, err := os.ReadFile(input)
	if err != nil {
		return Translation{}, &FileError{Path: input, Err: err}
	}
	result, err := t.TranslateText(ctx, string(content))
	if err != nil {
		return Translation{}, err
	}
	if output != "" {
		if err := os.WriteFile(output, []byte(result.Text), 0o644); err != nil {
			return result, &FileError{Path: output, Err: err}
		}
	}
	return result, nil
}

// Interactive runs the prompt loop until the user types quit, exit or q, or
// in reaches EOF. The prompt is printed only when prompt is true.
func (t *Translator) Interactive(ctx context.Context, in io.Reader, out io.Writer, prompt bool) error {
	fmt.Fprintln(out, "Hindi to English Translator")
	fmt.Fprintln(out, "Type 'quit' to exit")
	fmt.Fprintln(out, strings.Repeat("-", 30))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if prompt {
			fmt.Fprint(out, "\nEnter Hindi text: ")
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "":
			fmt.Fprintln(out, "Please enter some text to translate")
			continue
		}

		result, err := t.TranslateText(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "English: Translation error: %v\n", err)
			continue
		}
		if result.Warning != "" {
			fmt.Fprintf(out, "Warning: %s\n", result.Warning)
		}
		fmt.Fprintf(out, "English: %s\n", result.Text)
	}
}
