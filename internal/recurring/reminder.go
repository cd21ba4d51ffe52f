// Package recurring reminds users about upcoming recurring payments.
package recurring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/expense-tracker/internal/model"
	"github.com/Veraticus/expense-tracker/internal/service"
)

const (
	// DefaultLookahead is how far ahead an occurrence can be and still get a reminder.
	DefaultLookahead = 24 * time.Hour

	// ReminderTitle is the push title of a payment reminder.
	ReminderTitle = "Upcoming Payment"

	dateLayout = "Jan 2, 2006 15:04 MST"
)

var errNotDue = errors.New("no reminder due")

// NextOccurrence returns the index and time of the first occurrence of rt
// strictly after now, or the start itself when the series has not begun.
// It reports false once the series is exhausted.
func NextOccurrence(rt *model.RecurringTransaction, now time.Time) (int64, time.Time, bool) {
	period := rt.Period()
	if period <= 0 {
		return 0, time.Time{}, false
	}

	var idx int64
	if now.Before(rt.StartDate) {
		idx = 0
	} else {
		idx = int64(now.Sub(rt.StartDate)/period) + 1
	}

	at := rt.StartDate.Add(time.Duration(idx) * period)
	if rt.EndDate != nil && at.After(*rt.EndDate) {
		return 0, time.Time{}, false
	}
	return idx, at, true
}

// ReminderMessage is the body of a payment reminder.
func ReminderMessage(rt *model.RecurringTransaction, at time.Time) string {
	name := rt.Note
	if name == "" {
		name = "recurring payment"
	}
	return fmt.Sprintf("Your %s of $%s is due on %s.",
		name, decimal.NewFromFloat(rt.Amount).StringFixed(2), at.UTC().Format(dateLayout))
}

// Report summarizes one reminder pass.
type Report struct {
	Checked  int
	Reminded int
	Failed   int
}

// Reminder queues reminders for recurring payments coming due.
type Reminder struct {
	store     service.RecurringStore
	clock     service.Clock
	lookahead time.Duration
}

// NewReminder creates a reminder. A nil clock uses the system clock and a
// non-positive lookahead uses DefaultLookahead.
func NewReminder(store service.RecurringStore, clock service.Clock, lookahead time.Duration) *Reminder {
	if clock == nil {
		clock = service.SystemClock
	}
	if lookahead <= 0 {
		lookahead = DefaultLookahead
	}
	return &Reminder{store: store, clock: clock, lookahead: lookahead}
}

// Run checks every recurring template once. Each template is handled in its
// own transaction and a failure never stops the others.
func (r *Reminder) Run(ctx context.Context) (Report, error) {
	var report Report

	templates, err := r.store.ListRecurringTransactions(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list recurring transactions: %w", err)
	}

	for i := range templates {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		rtID := templates[i].ID
		now := r.clock().UTC()
		report.Checked++

		reminded, err := r.remind(ctx, rtID, now)
		if err != nil {
			report.Failed++
			slog.Error("recurring reminder failed", "recurring_id", rtID, "error", err)
			continue
		}
		if reminded {
			report.Reminded++
		}
	}

	slog.Info("recurring reminder pass complete",
		"checked", report.Checked,
		"reminded", report.Reminded,
		"failed", report.Failed)

	return report, nil
}

func (r *Reminder) remind(ctx context.Context, id int64, now time.Time) (bool, error) {
	err := r.store.WithTx(ctx, func(tx service.Tx) error {
		rt, err := tx.GetRecurringTransaction(ctx, id)
		if err != nil {
			return err
		}

		idx, at, ok := NextOccurrence(rt, now)
		if !ok || at.Before(now) || at.After(now.Add(r.lookahead)) {
			return errNotDue
		}
		if rt.Reminded(idx, at) {
			return errNotDue
		}

		if err := tx.EnqueueNotification(ctx, &model.Notification{
			UserID: rt.UserID,
			Kind:   model.NotificationRecurringReminder,
			Title:  ReminderTitle,
			Body:   ReminderMessage(rt, at),
		}); err != nil {
			return err
		}

		rt.LastNotifiedOccurrence = idx
		rt.LastNotifiedPaymentDate = &at
		return tx.SaveRecurringTransaction(ctx, rt)
	})

	if errors.Is(err, errNotDue) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
