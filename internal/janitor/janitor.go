// Package janitor runs the storage-hygiene shredder. Lazy expiration at
// read time is the correctness mechanism; the shredder only destroys
// payload bytes of rows that already reached a terminal state, so the
// orchestrator never depends on it running.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Shredder is the narrow store contract the janitor needs.
type Shredder interface {
	ShredTerminal(ctx context.Context, cutoff time.Time) (int64, error)
}

// Janitor shreds ciphertext of terminal secrets on a cron schedule.
type Janitor struct {
	store     Shredder
	schedule  cron.Schedule
	retention time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Janitor. cronSpec is a standard five-field cron expression;
// retention is how long a row must have been terminal before its payload is
// destroyed.
func New(s Shredder, cronSpec string, retention time.Duration, logger *slog.Logger) (*Janitor, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronSpec)
	if err != nil {
		return nil, fmt.Errorf("parse shred schedule %q: %w", cronSpec, err)
	}
	return &Janitor{
		store:     s,
		schedule:  schedule,
		retention: retention,
		logger:    logger,
	}, nil
}

// Start launches the background shred loop.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.done != nil {
		return fmt.Errorf("janitor already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.done = make(chan struct{})

	go j.loop(runCtx)
	j.logger.Info("janitor started", "retention", j.retention.String())
	return nil
}

// Stop cancels the loop and waits for it to finish.
func (j *Janitor) Stop() {
	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (j *Janitor) loop(ctx context.Context) {
	defer close(j.done)

	for {
		next := j.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			j.runOnce(ctx)
		}
	}
}

// runOnce shreds everything terminal since before the retention window.
func (j *Janitor) runOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-j.retention)
	n, err := j.store.ShredTerminal(ctx, cutoff)
	if err != nil {
		j.logger.Error("shred run failed", "error", err)
		return
	}
	if n > 0 {
		j.logger.Info("shredded terminal secrets", "count", n)
	}
}
