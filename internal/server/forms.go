package server

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"prama/internal/fileutil"
	"prama/internal/services"
	"prama/internal/services/sadtalker"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before parts spill to temporary files.
const multipartMemory = 32 << 20

// formOverhead allows for field values and part headers beyond the files.
const formOverhead = 1 << 20

// parseForm reads a multipart or urlencoded body. files is the number of
// uploads the body may carry.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request, files int) error {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(files)*s.maxUpload+formOverhead)
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return fmt.Errorf("%w: malformed form: %v", services.ErrValidation, err)
}

// requireMultipart rejects bodies that are not multipart/form-data.
func requireMultipart(r *http.Request) error {
	if r.MultipartForm == nil {
		return fmt.Errorf("%w: expected multipart/form-data body", services.ErrValidation)
	}
	return nil
}

// formFile returns the upload in field, or a zero Upload when the field is
// absent. The returned close function is never nil.
func formFile(r *http.Request, field string) (fileutil.Upload, func(), error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return fileutil.Upload{}, func() {}, nil
	}
	if err != nil {
		return fileutil.Upload{}, func() {}, fmt.Errorf("%w: read %s: %v", services.ErrValidation, field, err)
	}
	return fileutil.Upload{Name: header.Filename, Body: file}, func() { _ = file.Close() }, nil
}

// parseOptions overlays form fields onto defaults.
func parseOptions(form url.Values, defaults sadtalker.Options) (sadtalker.Options, error) {
	opts := defaults
	if v := strings.TrimSpace(form.Get("preprocess")); v != "" {
		opts.Preprocess = v
	}
	var err error
	if opts.StillMode, err = formBool(form, "still_mode", opts.StillMode); err != nil {
		return opts, err
	}
	if opts.UseEnhancer, err = formBool(form, "use_enhancer", opts.UseEnhancer); err != nil {
		return opts, err
	}
	if opts.BatchSize, err = formInt(form, "batch_size", opts.BatchSize); err != nil {
		return opts, err
	}
	if opts.Size, err = formInt(form, "size", opts.Size); err != nil {
		return opts, err
	}
	if opts.PoseStyle, err = formInt(form, "pose_style", opts.PoseStyle); err != nil {
		return opts, err
	}
	return opts, nil
}

func formBool(form url.Values, key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(form.Get(key))
	if v == "" {
		return fallback, nil
	}
	if strings.EqualFold(v, "on") {
		return true, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s must be a boolean, got %q", services.ErrValidation, key, v)
	}
	return b, nil
}

func formInt(form url.Values, key string, fallback int) (int, error) {
	v := strings.TrimSpace(form.Get(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s must be an integer, got %q", services.ErrValidation, key, v)
	}
	return n, nil
}
