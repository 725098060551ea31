package main

import (
	"context"
	"fmt"
	"log/slog"

	"prama/internal/config"
	"prama/internal/inferlock"
	"prama/internal/jobs"
	"prama/internal/logging"
	"prama/internal/media/audio"
	"prama/internal/media/ffprobe"
	"prama/internal/notifications"
	"prama/internal/preflight"
	"prama/internal/server"
	"prama/internal/services/coqui"
	"prama/internal/services/sadtalker"
	"prama/internal/services/voiceclone"
	"prama/internal/services/wav2lip"
	"prama/internal/studio"
	"prama/internal/talkinghead"
)

// app holds the services shared by serve and the one-shot generation commands.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	store       *jobs.Store
	talkingHead *talkinghead.Service
	studio      *studio.Pipeline
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := jobs.Open(cfg.JobsDBPath())
	if err != nil {
		return nil, fmt.Errorf("open job ledger: %w", err)
	}

	notifier := notifications.NewService(cfg)
	tracker := jobs.NewTracker(store, notifier, logger)
	lock := inferlock.New(cfg.InferenceLockPath(), logger)

	th := talkinghead.NewService(cfg, sadtalker.NewService(cfg, logger), logger,
		talkinghead.WithSpeaker(coqui.NewService(cfg, logger)),
		talkinghead.WithLock(lock),
		talkinghead.WithTracker(tracker),
	)

	pipeline := studio.NewPipeline(cfg, studio.Stages{
		Prober: ffprobe.NewProber(cfg.Media.FFprobe, nil),
		Audio: audio.NewExtractor(cfg.Media.FFmpeg,
			audio.WithSampleRate(cfg.Media.SampleRate),
			audio.WithLogger(logger),
		),
		Synthesizer: voiceclone.NewService(cfg, logger),
		LipSync:     wav2lip.NewService(cfg, logger),
	}, logger,
		studio.WithLock(lock),
		studio.WithTracker(tracker),
	)

	logger.Debug("services wired",
		logging.String("jobs_db", store.Path()),
		logging.String("inference_lock", lock.Path()),
		logging.Bool("speech_enabled", th.SpeechEnabled()),
	)

	return &app{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		talkingHead: th,
		studio:      pipeline,
	}, nil
}

func (a *app) newServer() (*server.Server, error) {
	return server.New(a.cfg, server.Deps{
		TalkingHead: a.talkingHead,
		Studio:      a.studio,
		Jobs:        a.store,
		Status: func(ctx context.Context) preflight.Report {
			return preflight.BuildReport(ctx, a.cfg, false)
		},
	}, a.logger)
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logging.WarnWithContext(a.logger, "close job ledger failed", "jobs_close_failed",
				logging.Error(err),
			)
		}
	}
}
