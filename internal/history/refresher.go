package history

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultInterval matches the 30-second poll the history view runs
// while it is open.
const DefaultInterval = 30 * time.Second

// Refresher periodically re-fetches history while the view is visible.
// It refreshes once immediately, then on every tick for which Active
// reports the history tab is the current view. Stop it by cancelling
// the context.
type Refresher struct {
	Reconciler *Reconciler
	Interval   time.Duration

	// Active gates each tick; nil means always active.
	Active func() bool

	// OnUpdate runs after each successful refresh.
	OnUpdate func()

	Logger *log.Logger
}

func (f *Refresher) Run(ctx context.Context) error {
	interval := f.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := f.Logger
	if logger == nil {
		logger = log.Default().WithPrefix("history")
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	// kick immediately
	f.tick(ctx, logger)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			f.tick(ctx, logger)
		}
	}
}

func (f *Refresher) tick(ctx context.Context, logger *log.Logger) {
	if f.Active != nil && !f.Active() {
		return
	}
	if err := f.Reconciler.Refresh(ctx); err != nil {
		// A failed poll is not fatal; the next tick retries.
		logger.Warn("periodic refresh failed", "err", err)
		return
	}
	if f.OnUpdate != nil {
		f.OnUpdate()
	}
}
