package media

import (
	"errors"
	"fmt"
	"os"
)

// ErrOutputMissing reports an external tool that exited cleanly without
// producing its output file.
var ErrOutputMissing = errors.New("output file missing")

// RequireOutput returns ErrOutputMissing unless path is a non-empty regular file.
func RequireOutput(tool, path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		return fmt.Errorf("%s: %w: %s", tool, ErrOutputMissing, path)
	}
	return nil
}
