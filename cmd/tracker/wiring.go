package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/expense-tracker/internal/deals"
	"github.com/Veraticus/expense-tracker/internal/goals"
	"github.com/Veraticus/expense-tracker/internal/push"
	"github.com/Veraticus/expense-tracker/internal/recurring"
	"github.com/Veraticus/expense-tracker/internal/scheduler"
	"github.com/Veraticus/expense-tracker/internal/service"
	"github.com/Veraticus/expense-tracker/internal/storage"
)

// engine is every component the commands drive, built from cfg.
type engine struct {
	store        *storage.SQLiteStorage
	recalculator *goals.Recalculator
	notifier     *goals.Notifier
	reminder     *recurring.Reminder
	dispatcher   *push.Dispatcher
	alerter      *deals.Alerter
	scheduler    *scheduler.Scheduler
}

func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func newGateway(ctx context.Context) (service.PushGateway, error) {
	if !cfg.Push.Enabled {
		slog.Warn("push delivery disabled, notifications will only be logged")
		return push.LogGateway{}, nil
	}
	gateway, err := push.NewFCMGateway(ctx, cfg.Push)
	if err != nil {
		return nil, fmt.Errorf("failed to create FCM gateway: %w", err)
	}
	return gateway, nil
}

func newEngine(ctx context.Context) (*engine, error) {
	store, err := openStorage(ctx)
	if err != nil {
		return nil, err
	}

	gateway, err := newGateway(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	clock := service.Clock(service.SystemClock)
	e := &engine{
		store:        store,
		recalculator: goals.NewRecalculator(store),
		notifier:     goals.NewNotifier(store, clock),
		reminder:     recurring.NewReminder(store, clock, cfg.ReminderLookahead),
		dispatcher:   push.NewDispatcher(store, store, gateway, clock),
		alerter:      deals.NewAlerter(store),
	}
	e.scheduler = scheduler.New(cfg.Scheduler, scheduler.Deps{
		Recalculator: e.recalculator,
		Notifier:     e.notifier,
		Reminder:     e.reminder,
		Dispatcher:   e.dispatcher,
	}, scheduler.NewTimeTicker)

	return e, nil
}

func (e *engine) Close() error {
	return e.store.Close()
}
