package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"prama/internal/config"
	"prama/internal/jobs"
	"prama/internal/logging"
	"prama/internal/preflight"
	"prama/internal/services/sadtalker"
	"prama/internal/studio"
	"prama/internal/talkinghead"
)

// TalkingHead is the generation surface behind /api/generate and /api/tts.
type TalkingHead interface {
	Generate(ctx context.Context, in talkinghead.Input) (talkinghead.Result, error)
	Speak(ctx context.Context, text string) (talkinghead.SpeechResult, error)
	SpeechEnabled() bool
}

// Studio runs vodcast requests.
type Studio interface {
	Run(ctx context.Context, in studio.Input) (studio.Result, error)
}

// JobStore exposes the run ledger.
type JobStore interface {
	Get(ctx context.Context, id string) (*jobs.Job, error)
	List(ctx context.Context, filter jobs.Filter) ([]jobs.Job, error)
}

// StatusFunc builds the dependency and preflight report.
type StatusFunc func(ctx context.Context) preflight.Report

// Deps are the services the server routes to. Any may be nil; the matching
// endpoints then answer 503.
type Deps struct {
	TalkingHead TalkingHead
	Studio      Studio
	Jobs        JobStore
	Status      StatusFunc
}

// Server is the HTTP front end: JSON API, browser UI and file downloads.
type Server struct {
	bind       string
	token      string
	maxUpload  int64
	timeout    time.Duration
	uiDefaults sadtalker.Options
	roots      []fileRoot
	deps       Deps
	pages      *pages
	logger     *slog.Logger

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

// New builds a Server for cfg.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config is required")
	}
	pg, err := loadPages()
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.Server.RequestTimeout) * time.Second
	s := &Server{
		bind:       strings.TrimSpace(cfg.Server.Bind),
		token:      strings.TrimSpace(cfg.Server.APIToken),
		maxUpload:  cfg.MaxUploadBytes(),
		timeout:    timeout,
		uiDefaults: sadtalker.DefaultOptions(cfg),
		roots: []fileRoot{
			{name: "results", dir: cfg.Paths.ResultsDir},
			{name: "uploads", dir: cfg.Paths.UploadDir},
			{name: "generated", dir: cfg.Paths.GeneratedDir},
		},
		deps:   deps,
		pages:  pg,
		logger: logging.NewComponentLogger(logger, "server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", s.api(s.handleGenerate))
	mux.HandleFunc("/api/tts", s.api(s.handleTTS))
	mux.HandleFunc("/api/studio", s.api(s.handleStudio))
	mux.HandleFunc("/api/jobs", s.api(s.handleJobs))
	mux.HandleFunc("/api/jobs/", s.api(s.handleJob))
	mux.HandleFunc("/api/status", s.api(s.handleStatus))
	mux.HandleFunc("/ui/generate", s.handleUIGenerate)
	mux.HandleFunc("/ui/tts", s.handleUITTS)
	mux.HandleFunc("/ui/studio", s.handleUIStudio)
	mux.HandleFunc("/studio", s.handleStudioPage)
	mux.HandleFunc("/files/", s.handleFile)
	mux.HandleFunc("/", s.handleIndex)

	s.handler = s.withRequestContext(s.withRecover(mux))
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listening address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("server listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("server listening",
		logging.String("address", listener.Addr().String()),
		logging.Bool("auth", s.token != ""),
	)
	return nil
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
}

// api wraps JSON endpoints with bearer auth and the request deadline.
func (s *Server) api(next http.HandlerFunc) http.HandlerFunc {
	return authMiddleware(s.token, s.withTimeout(next))
}

func (s *Server) withTimeout(next http.HandlerFunc) http.HandlerFunc {
	if s.timeout <= 0 {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}
