// Package inferlock serializes model invocations so only one GPU-heavy job
// runs at a time, within this process and across every prama process that
// shares the state directory.
package inferlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"prama/internal/logging"
)

const defaultRetryDelay = 250 * time.Millisecond

// Lock pairs an in-process semaphore with a file lock.
type Lock struct {
	path       string
	file       *flock.Flock
	slot       chan struct{}
	retryDelay time.Duration
	logger     *slog.Logger
}

// New returns a Lock backed by the file at path.
func New(path string, logger *slog.Logger) *Lock {
	slot := make(chan struct{}, 1)
	return &Lock{
		path:       path,
		file:       flock.New(path),
		slot:       slot,
		retryDelay: defaultRetryDelay,
		logger:     logging.NewComponentLogger(logger, "inferlock"),
	}
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Acquire blocks until the lock is held or ctx is done. The returned release
// function must be called exactly once.
func (l *Lock) Acquire(ctx context.Context) (func(), error) {
	started := time.Now()
	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for inference slot: %w", ctx.Err())
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		<-l.slot
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := l.file.TryLockContext(ctx, l.retryDelay)
	if err != nil || !ok {
		<-l.slot
		if err == nil {
			err = errors.New("lock not acquired")
		}
		return nil, fmt.Errorf("acquire inference lock %s: %w", l.path, err)
	}
	if waited := time.Since(started); waited > time.Second {
		l.logger.Info("inference lock acquired after wait",
			logging.Duration("waited", waited),
			logging.Alert("inference_contention"),
		)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		if err := l.file.Unlock(); err != nil {
			l.logger.Warn("failed to release inference lock",
				logging.Error(err),
				logging.String(logging.FieldEventType, "inferlock_release_failed"),
				logging.String(logging.FieldErrorHint, "remove "+l.path+" if no prama process is running"),
			)
		}
		<-l.slot
	}, nil
}
