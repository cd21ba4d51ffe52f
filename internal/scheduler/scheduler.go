package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/expense-tracker/internal/common"
	"github.com/Veraticus/expense-tracker/internal/goals"
	"github.com/Veraticus/expense-tracker/internal/push"
	"github.com/Veraticus/expense-tracker/internal/recurring"
)

// Loop names accepted by Trigger.
const (
	LoopGoals       = "goals"
	LoopRecurring   = "recurring"
	LoopHealthcheck = "healthcheck"
)

// Config sets the loop intervals.
type Config struct {
	GoalInterval        time.Duration
	RecurringInterval   time.Duration
	HealthcheckInterval time.Duration
}

// DefaultConfig returns the production intervals.
func DefaultConfig() Config {
	return Config{
		GoalInterval:        2 * time.Minute,
		RecurringInterval:   2 * time.Minute,
		HealthcheckInterval: time.Hour,
	}
}

// Validate checks that every interval is positive.
func (c Config) Validate() error {
	if c.GoalInterval <= 0 || c.RecurringInterval <= 0 || c.HealthcheckInterval <= 0 {
		return fmt.Errorf("%w: scheduler intervals must be positive", common.ErrInvalidConfig)
	}
	return nil
}

// GoalRecalculator refreshes goal progress for every active user.
type GoalRecalculator interface {
	RecalculateAll(ctx context.Context) (goals.RecalcResult, error)
}

// GoalNotifier emits goal milestone notifications.
type GoalNotifier interface {
	Run(ctx context.Context) (goals.Report, error)
}

// PaymentReminder emits recurring payment reminders.
type PaymentReminder interface {
	Run(ctx context.Context) (recurring.Report, error)
}

// Dispatcher delivers queued notifications and healthcheck pushes.
type Dispatcher interface {
	DispatchPending(ctx context.Context) (push.DispatchReport, error)
	Healthcheck(ctx context.Context) (push.DispatchReport, error)
}

// Deps are the components the loops drive.
type Deps struct {
	Recalculator GoalRecalculator
	Notifier     GoalNotifier
	Reminder     PaymentReminder
	Dispatcher   Dispatcher
}

// Scheduler owns the goal, recurring and healthcheck loops.
type Scheduler struct {
	loops map[string]*Loop
	order []string
}

// New builds the three loops. A nil ticker factory uses real tickers.
func New(config Config, deps Deps, newTicker TickerFactory) *Scheduler {
	s := &Scheduler{loops: make(map[string]*Loop)}
	s.add(NewLoop(LoopGoals, config.GoalInterval, goalJob(deps), newTicker))
	s.add(NewLoop(LoopRecurring, config.RecurringInterval, recurringJob(deps), newTicker))
	s.add(NewLoop(LoopHealthcheck, config.HealthcheckInterval, healthcheckJob(deps), newTicker))
	return s
}

func (s *Scheduler) add(l *Loop) {
	s.loops[l.Name()] = l
	s.order = append(s.order, l.Name())
}

// Names lists the loops in start order.
func (s *Scheduler) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Run starts every loop and blocks until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range s.order {
		loop := s.loops[name]
		g.Go(func() error {
			loop.Start(ctx)
			return nil
		})
	}
	return g.Wait()
}

// Trigger runs one iteration of the named loop now.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	loop, ok := s.loops[name]
	if !ok {
		return fmt.Errorf("%w: %q", common.ErrUnknownLoop, name)
	}
	slog.Info("manual trigger", "loop", name)
	return loop.RunOnce(ctx)
}

// goalJob keeps going after a failed step: the notifier recomputes progress
// itself, and anything already queued should still be dispatched.
func goalJob(deps Deps) Job {
	return func(ctx context.Context) error {
		var errs []error
		if _, err := deps.Recalculator.RecalculateAll(ctx); err != nil {
			errs = append(errs, fmt.Errorf("recalculating goals: %w", err))
		}
		if _, err := deps.Notifier.Run(ctx); err != nil {
			errs = append(errs, fmt.Errorf("notifying goals: %w", err))
		}
		if _, err := deps.Dispatcher.DispatchPending(ctx); err != nil {
			errs = append(errs, fmt.Errorf("dispatching goal notifications: %w", err))
		}
		return errors.Join(errs...)
	}
}

func recurringJob(deps Deps) Job {
	return func(ctx context.Context) error {
		var errs []error
		if _, err := deps.Reminder.Run(ctx); err != nil {
			errs = append(errs, fmt.Errorf("checking recurring payments: %w", err))
		}
		if _, err := deps.Dispatcher.DispatchPending(ctx); err != nil {
			errs = append(errs, fmt.Errorf("dispatching reminders: %w", err))
		}
		return errors.Join(errs...)
	}
}

func healthcheckJob(deps Deps) Job {
	return func(ctx context.Context) error {
		_, err := deps.Dispatcher.Healthcheck(ctx)
		if errors.Is(err, common.ErrNoDevices) {
			slog.Info("healthcheck skipped, no registered devices")
			return nil
		}
		return err
	}
}
