package textutil

import (
	"path/filepath"
	"strings"
)

// SanitizeFileName maps path separators, colons and asterisks to dashes and
// drops the remaining characters Windows and Unix refuse in file names.
func SanitizeFileName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*':
			return '-'
		case '?', '"', '<', '>', '|', 0:
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(mapped)
}

// UploadName reduces a client-supplied upload name to a single safe path
// element. Directory components are discarded, dot-only names are rejected,
// and fallback is returned when nothing usable remains.
func UploadName(name, fallback string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	name = SanitizeFileName(name)
	name = strings.TrimLeft(name, ".")
	if name == "" || filepath.Base(name) != name {
		return fallback
	}
	return name
}

// SanitizeToken lowercases value into [a-z0-9_-], mapping anything else to
// an underscore. Empty results become "unknown".
func SanitizeToken(value string) string {
	token := strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, strings.TrimSpace(value))
	if token = strings.Trim(token, "_-"); token == "" {
		return "unknown"
	}
	return token
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}
