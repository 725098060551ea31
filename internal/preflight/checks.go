package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"prama/internal/config"
	"prama/internal/deps"
	"prama/internal/services/gtranslate"
)

// translateProbe is the text sent to confirm the translate endpoint answers.
const translateProbe = "नमस्ते"

// CheckTranslate verifies that the translation endpoint is reachable.
// It uses a 10-second timeout and a single attempt (no retries).
func CheckTranslate(ctx context.Context, cfg config.Translate, opts ...gtranslate.Option) Result {
	const name = "Translate API"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts = append([]gtranslate.Option{gtranslate.WithRetryMaxAttempts(1)}, opts...)
	client := gtranslate.NewClient(gtranslate.Config{
		BaseURL:        cfg.BaseURL,
		TimeoutSeconds: cfg.TimeoutSeconds,
	}, opts...)

	lang, err := client.Detect(checkCtx, translateProbe)
	if err != nil {
		return Result{Name: name, Detail: summarizeTranslateError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Reachable (probe detected %q)", lang)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFile verifies that a model script or checkpoint exists and is readable.
// Directories are accepted when dirOK is set (SadTalker checkpoints).
func CheckFile(name, path string, dirOK bool) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() && !dirOK {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckSystemDeps evaluates all external binaries for the given config.
// Both the server status endpoint and the CLI status command use this to
// avoid duplicating the requirements list.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}

func summarizeTranslateError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (translate API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (translate API unreachable)"
	}
	var statusErr *gtranslate.HTTPStatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("translate API returned %d", statusErr.StatusCode)
	}
	return err.Error()
}
