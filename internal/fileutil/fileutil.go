package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrTooLarge reports an upload that exceeded its size cap.
var ErrTooLarge = errors.New("file exceeds size limit")

// SaveUpload streams r into dst through a temporary sibling file and renames
// it into place once complete. When maxBytes is positive, uploads larger than
// the cap are discarded and ErrTooLarge is returned. It returns the number of
// bytes written.
func SaveUpload(dst string, r io.Reader, maxBytes int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("create upload directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	written, err := io.Copy(tmp, src)
	if err != nil {
		return written, fmt.Errorf("write upload: %w", err)
	}
	if maxBytes > 0 && written > maxBytes {
		return written, fmt.Errorf("%s: %w (%d bytes max)", filepath.Base(dst), ErrTooLarge, maxBytes)
	}
	if err := tmp.Close(); err != nil {
		return written, fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return written, fmt.Errorf("commit upload: %w", err)
	}
	committed = true
	return written, nil
}

// Exists reports whether path is a regular, non-empty file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// CopyFile streams src to dst using io.Copy with default permissions (0o644).
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// Upload is a client-supplied file: its original name and contents.
type Upload struct {
	Name string
	Body io.Reader
}

// Present reports whether the upload carries a body.
func (u Upload) Present() bool {
	return u.Body != nil
}
