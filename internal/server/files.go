package server

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"prama/internal/workspace"
)

type fileRoot struct {
	name string
	dir  string
}

// fileURL returns the /files/ URL for a path under one of the served roots,
// or "" when the path is outside all of them.
func (s *Server) fileURL(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	for _, root := range s.roots {
		if root.dir == "" || !workspace.Contains(root.dir, path) {
			continue
		}
		rel, err := filepath.Rel(filepath.Clean(root.dir), filepath.Clean(path))
		if err != nil || rel == "." {
			continue
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		for i, p := range parts {
			parts[i] = url.PathEscape(p)
		}
		return "/files/" + root.name + "/" + strings.Join(parts, "/")
	}
	return ""
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/files/")
	name, rel, ok := strings.Cut(rest, "/")
	if !ok || rel == "" {
		http.NotFound(w, r)
		return
	}
	var root *fileRoot
	for i := range s.roots {
		if s.roots[i].name == name && s.roots[i].dir != "" {
			root = &s.roots[i]
			break
		}
	}
	if root == nil {
		http.NotFound(w, r)
		return
	}
	full := filepath.Join(root.dir, filepath.FromSlash(rel))
	if !workspace.Contains(root.dir, full) {
		http.NotFound(w, r)
		return
	}
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, full)
}
