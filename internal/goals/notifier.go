package goals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/expense-tracker/internal/common"
	"github.com/Veraticus/expense-tracker/internal/leveling"
	"github.com/Veraticus/expense-tracker/internal/model"
	"github.com/Veraticus/expense-tracker/internal/service"
)

// errNothingDue rolls back a goal transaction that had no milestone to emit.
var errNothingDue = errors.New("no milestone due")

// DueMilestone reports which milestone, if any, goal owes at now. The
// post-period milestone wins over the mid-period one, and a zero-length
// window never reaches the mid-period milestone.
func DueMilestone(goal *model.Goal, now time.Time) Milestone {
	if !now.Before(goal.End) {
		if !goal.PostNotified {
			return MilestonePostPeriod
		}
		return MilestoneNone
	}

	if goal.MidNotified {
		return MilestoneNone
	}
	fraction, ok := goal.ElapsedFraction(now)
	if ok && fraction >= MidPeriodThreshold {
		return MilestoneMidPeriod
	}
	return MilestoneNone
}

// Report summarizes one notifier pass.
type Report struct {
	Evaluated  int
	MidPeriod  int
	PostPeriod int
	Completed  int
	LevelUps   int
	Skipped    int
	Failed     int
}

// Notifier emits goal milestone notifications into the outbox.
type Notifier struct {
	store service.GoalStore
	clock service.Clock
}

// NewNotifier creates a notifier. A nil clock uses the system clock.
func NewNotifier(store service.GoalStore, clock service.Clock) *Notifier {
	if clock == nil {
		clock = service.SystemClock
	}
	return &Notifier{store: store, clock: clock}
}

// Run evaluates every goal still owing a notification. Each goal is handled
// in its own transaction: the flag, the queued notification and any XP award
// commit together or not at all. A failing goal never stops the batch.
func (n *Notifier) Run(ctx context.Context) (Report, error) {
	var report Report

	pending, err := n.store.ListGoalsPendingNotification(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list goals: %w", err)
	}

	for i := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		goalID := pending[i].ID
		now := n.clock().UTC()
		report.Evaluated++

		var outcome goalOutcome
		err := n.store.UpdateGoal(ctx, goalID, func(tx service.Tx, goal *model.Goal) error {
			var err error
			outcome, err = n.evaluate(ctx, tx, goal, now)
			return err
		})

		switch {
		case err == nil:
			report.add(outcome)
		case errors.Is(err, errNothingDue):
		case errors.Is(err, common.ErrCategoryUnavailable):
			report.Skipped++
			slog.Warn("skipping goal notification", "goal_id", goalID, "error", err)
		default:
			report.Failed++
			slog.Error("goal notification failed", "goal_id", goalID, "error", err)
		}
	}

	slog.Info("goal notifier pass complete",
		"evaluated", report.Evaluated,
		"mid_period", report.MidPeriod,
		"post_period", report.PostPeriod,
		"level_ups", report.LevelUps,
		"skipped", report.Skipped,
		"failed", report.Failed)

	return report, nil
}

type goalOutcome struct {
	milestone Milestone
	completed bool
	leveledUp bool
}

func (r *Report) add(o goalOutcome) {
	switch o.milestone {
	case MilestoneMidPeriod:
		r.MidPeriod++
	case MilestonePostPeriod:
		r.PostPeriod++
	}
	if o.completed {
		r.Completed++
	}
	if o.leveledUp {
		r.LevelUps++
	}
}

func (n *Notifier) evaluate(ctx context.Context, tx service.Tx, goal *model.Goal, now time.Time) (goalOutcome, error) {
	milestone := DueMilestone(goal, now)
	if milestone == MilestoneNone {
		return goalOutcome{}, errNothingDue
	}

	label, err := categoryLabel(ctx, tx, goal)
	if err != nil {
		return goalOutcome{}, err
	}

	progress, err := ComputeProgress(ctx, tx, goal)
	if err != nil {
		return goalOutcome{}, err
	}
	goal.Progress = progress.Value
	goal.OnTrack = progress.OnTrack

	body := Message(milestone, goal, label, progress)
	outcome := goalOutcome{milestone: milestone}

	switch milestone {
	case MilestoneMidPeriod:
		goal.MidNotified = true
	case MilestonePostPeriod:
		goal.PostNotified = true
		outcome.completed = progress.OnTrack
	}

	goalID := goal.ID
	if err := tx.EnqueueNotification(ctx, &model.Notification{
		UserID: goal.UserID,
		GoalID: &goalID,
		Kind:   milestone.kind(),
		Title:  NotificationTitle,
		Body:   body,
	}); err != nil {
		return goalOutcome{}, err
	}

	if outcome.completed {
		xp := leveling.AwardForPeriod(goal.Start, goal.End)
		_, leveledUp, err := leveling.Award(ctx, tx, goal.UserID, xp)
		if err != nil {
			return goalOutcome{}, err
		}
		outcome.leveledUp = leveledUp
	}

	slog.Debug("goal milestone reached",
		"goal_id", goal.ID,
		"milestone", milestone.String(),
		"on_track", progress.OnTrack,
		"progress", progress.Value)

	return outcome, nil
}

func categoryLabel(ctx context.Context, tx service.Tx, goal *model.Goal) (string, error) {
	if goal.IsGlobal() {
		return GlobalGoalLabel, nil
	}

	cat, err := tx.GetCategory(ctx, *goal.CategoryID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrCategoryUnavailable, err)
	}
	if strings.TrimSpace(cat.Name) == "" {
		return "", fmt.Errorf("%w: category %d has no name", common.ErrCategoryUnavailable, cat.ID)
	}
	return cat.Name, nil
}
