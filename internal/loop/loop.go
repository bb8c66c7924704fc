// Package loop runs a function on a fixed interval until stopped.
package loop

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Runner calls fn every interval on its own goroutine.
type Runner struct {
	mu       sync.RWMutex
	name     string
	interval time.Duration
	fn       func(ctx context.Context, now time.Time)
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a runner. fn receives the tick time.
func New(name string, interval time.Duration, logger *slog.Logger, fn func(ctx context.Context, now time.Time)) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		name:     name,
		interval: interval,
		fn:       fn,
		logger:   logger.With("component", "loop", "loop", name),
	}
}

// Start begins the loop. Calling Start on a running loop is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	r.logger.Debug("loop started", "interval", r.interval)

	go func() {
		defer close(done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.run(ctx, now)
			}
		}
	}()
}

func (r *Runner) run(ctx context.Context, now time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("loop iteration panicked", "panic", rec)
		}
	}()
	r.fn(ctx, now)
}

// Stop cancels the loop and waits for the running iteration to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	done := r.done
	r.cancel = nil
	r.done = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	r.logger.Debug("loop stopped")
}
