// Package scheduler runs the periodic notification jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// Job is one iteration of a loop.
type Job func(ctx context.Context) error

// Ticker delivers ticks on a channel until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker is the production TickerFactory.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Loop runs a job immediately and then on every tick. At most one
// iteration runs at a time, whether it was started by a tick or by RunOnce.
type Loop struct {
	job       Job
	newTicker TickerFactory
	name      string
	interval  time.Duration
	mu        sync.Mutex
}

// NewLoop creates a loop. A nil factory uses NewTimeTicker.
func NewLoop(name string, interval time.Duration, job Job, newTicker TickerFactory) *Loop {
	if newTicker == nil {
		newTicker = NewTimeTicker
	}
	return &Loop{
		name:      name,
		interval:  interval,
		job:       job,
		newTicker: newTicker,
	}
}

// Name returns the loop name.
func (l *Loop) Name() string {
	return l.name
}

// Interval returns the time between iterations.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Start runs the loop until ctx is canceled. Failed iterations are logged
// and the loop keeps going.
func (l *Loop) Start(ctx context.Context) {
	slog.Info("starting loop", "loop", l.name, "interval", l.interval)

	ticker := l.newTicker(l.interval)
	defer ticker.Stop()

	l.iterate(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("loop stopped", "loop", l.name)
			return
		case <-ticker.C():
			l.iterate(ctx)
		}
	}
}

// RunOnce runs a single iteration synchronously and returns its error.
func (l *Loop) RunOnce(ctx context.Context) error {
	return l.run(ctx)
}

func (l *Loop) iterate(ctx context.Context) {
	if err := l.run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("loop iteration failed", "loop", l.name, "error", err)
	}
}

func (l *Loop) run(ctx context.Context) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("loop iteration panicked", "loop", l.name, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("loop %s panicked: %v", l.name, r)
		}
	}()

	start := time.Now()
	err = l.job(ctx)
	slog.Debug("loop iteration finished", "loop", l.name, "duration", time.Since(start), "error", err)
	return err
}
