package jobs

import (
	"context"
	"log/slog"
	"time"

	"prama/internal/logging"
)

// outcomeTimeout bounds recording a finished run.
const outcomeTimeout = 15 * time.Second

// Recorder is the part of Store that pipelines write to.
type Recorder interface {
	Begin(ctx context.Context, kind Kind, id string, inputs any) (*Job, error)
	Succeed(ctx context.Context, id, output string) error
	Fail(ctx context.Context, id string, cause error) error
}

// Notifier publishes run outcomes. notifications.Service satisfies it.
type Notifier interface {
	NotifyGenerationCompleted(ctx context.Context, kind, id, output string, elapsed time.Duration) error
	NotifyGenerationFailed(ctx context.Context, kind, id string, err error) error
}

// Tracker records runs in the ledger and publishes their outcome. Ledger and
// notification failures are logged and never fail the run itself.
type Tracker struct {
	rec    Recorder
	notify Notifier
	logger *slog.Logger
	now    func() time.Time
}

// NewTracker returns a Tracker. rec and notify may be nil.
func NewTracker(rec Recorder, notify Notifier, logger *slog.Logger) *Tracker {
	return &Tracker{
		rec:    rec,
		notify: notify,
		logger: logging.NewComponentLogger(logger, "jobs"),
		now:    time.Now,
	}
}

// Run is one tracked execution.
type Run struct {
	tracker *Tracker
	kind    Kind
	id      string
	started time.Time
}

// Start records a running job.
func (t *Tracker) Start(ctx context.Context, kind Kind, id string, inputs any) *Run {
	if t == nil {
		return &Run{kind: kind, id: id, started: time.Now()}
	}
	run := &Run{tracker: t, kind: kind, id: id, started: t.now()}
	if t.rec != nil {
		if _, err := t.rec.Begin(ctx, kind, id, inputs); err != nil {
			logging.WarnWithContext(t.logger, "failed to record job start", "job_record_failed",
				logging.String(logging.FieldJobID, id),
				logging.String(logging.FieldJobKind, string(kind)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "run will be missing from job history"),
			)
		}
	}
	return run
}

// Succeed marks the run finished with output. The outcome is recorded even
// when ctx has already been cancelled.
func (r *Run) Succeed(ctx context.Context, output string) {
	t := r.tracker
	if t == nil {
		return
	}
	ctx, cancel := outcomeContext(ctx)
	defer cancel()
	elapsed := t.now().Sub(r.started)
	if t.rec != nil {
		if err := t.rec.Succeed(ctx, r.id, output); err != nil {
			r.warn("failed to record job success", err)
		}
	}
	if t.notify != nil {
		if err := t.notify.NotifyGenerationCompleted(ctx, string(r.kind), r.id, output, elapsed); err != nil {
			r.warn("failed to send completion notification", err)
		}
	}
	t.logger.Info("job succeeded",
		logging.String(logging.FieldJobID, r.id),
		logging.String(logging.FieldJobKind, string(r.kind)),
		logging.String("output", output),
		logging.Duration("elapsed", elapsed),
	)
}

// Fail marks the run failed with cause. A run aborted by a request deadline
// or client disconnect is still recorded as failed.
func (r *Run) Fail(ctx context.Context, cause error) {
	t := r.tracker
	if t == nil {
		return
	}
	ctx, cancel := outcomeContext(ctx)
	defer cancel()
	if t.rec != nil {
		if err := t.rec.Fail(ctx, r.id, cause); err != nil {
			r.warn("failed to record job failure", err)
		}
	}
	if t.notify != nil {
		if err := t.notify.NotifyGenerationFailed(ctx, string(r.kind), r.id, cause); err != nil {
			r.warn("failed to send failure notification", err)
		}
	}
	logging.ErrorWithContext(t.logger, "job failed", "job_failed",
		logging.String(logging.FieldJobID, r.id),
		logging.String(logging.FieldJobKind, string(r.kind)),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "inspect the error for the failing tool"),
	)
}

// outcomeContext detaches ctx from its caller's cancellation and bounds the
// ledger write and notification instead.
func outcomeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(ctx), outcomeTimeout)
}

func (r *Run) warn(msg string, err error) {
	logging.WarnWithContext(r.tracker.logger, msg, "job_side_effect_failed",
		logging.String(logging.FieldJobID, r.id),
		logging.String(logging.FieldJobKind, string(r.kind)),
		logging.Error(err),
	)
}
