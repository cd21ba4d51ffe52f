package goals_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/expense-tracker/internal/goals"
	"github.com/Veraticus/expense-tracker/internal/model"
	"github.com/Veraticus/expense-tracker/internal/testutil"
)

var t0 = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

func TestDueMilestone(t *testing.T) {
	goal := &model.Goal{Start: t0, End: t0.Add(days(10))}

	tests := []struct {
		goal func() *model.Goal
		name string
		now  time.Time
		want goals.Milestone
	}{
		{name: "early", now: t0.Add(days(7)), want: goals.MilestoneNone},
		{name: "exactly 80 percent", now: t0.Add(days(8)), want: goals.MilestoneMidPeriod},
		{name: "just before end", now: t0.Add(days(10) - time.Second), want: goals.MilestoneMidPeriod},
		{name: "at end", now: t0.Add(days(10)), want: goals.MilestonePostPeriod},
		{name: "long after end", now: t0.Add(days(40)), want: goals.MilestonePostPeriod},
		{
			name: "mid already sent",
			now:  t0.Add(days(9)),
			goal: func() *model.Goal { g := *goal; g.MidNotified = true; return &g },
			want: goals.MilestoneNone,
		},
		{
			name: "post already sent",
			now:  t0.Add(days(11)),
			goal: func() *model.Goal { g := *goal; g.PostNotified = true; return &g },
			want: goals.MilestoneNone,
		},
		{
			name: "zero length window before end",
			now:  t0.Add(-time.Hour),
			goal: func() *model.Goal { return &model.Goal{Start: t0, End: t0} },
			want: goals.MilestoneNone,
		},
		{
			name: "zero length window at end",
			now:  t0,
			goal: func() *model.Goal { return &model.Goal{Start: t0, End: t0} },
			want: goals.MilestonePostPeriod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := goal
			if tt.goal != nil {
				g = tt.goal()
			}
			assert.Equal(t, tt.want, goals.DueMilestone(g, tt.now))
		})
	}
}

func TestNotifier_AmountGoalLifecycle(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	clock := testutil.NewClock(t0)

	user := db.MustCreateUser("alice")
	food := db.MustCreateCategory(user.ID, "Food")
	goal, err := model.NewGoal(user.ID, &food.ID, model.GoalKindAmount, 100, t0, 10)
	require.NoError(t, err)
	db.MustCreateGoal(goal)

	db.MustSpend(user.ID, food.ID, 40, t0.Add(days(2)))
	notifier := goals.NewNotifier(db.Storage, clock.Now)

	// Nothing is due before 80% of the window has passed.
	clock.Set(t0.Add(days(5)))
	report, err := notifier.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.MidPeriod)
	assert.Empty(t, db.MustPendingNotifications())

	clock.Set(t0.Add(days(8)))
	report, err = notifier.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.MidPeriod)

	pending := db.MustPendingNotifications()
	require.Len(t, pending, 1)
	assert.Equal(t, model.NotificationGoalMidPeriod, pending[0].Kind)
	assert.Equal(t, "Expense Tracker Goal!", pending[0].Title)
	assert.Equal(t, "Budget Goal: You are on track to complete your spending goal for Food. You are 60.0% away from breaking your spending limit (target $100).", pending[0].Body)
	require.NotNil(t, pending[0].GoalID)
	assert.Equal(t, goal.ID, *pending[0].GoalID)

	stored := db.MustGetGoal(goal.ID)
	assert.True(t, stored.MidNotified)
	assert.False(t, stored.PostNotified)

	// Repeated polls inside the window do not fire again.
	clock.Set(t0.Add(days(9)))
	report, err = notifier.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.MidPeriod)
	assert.Len(t, db.MustPendingNotifications(), 1)

	db.MustSpend(user.ID, food.ID, 80, t0.Add(days(9)))
	clock.Set(t0.Add(days(10)))
	report, err = notifier.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.PostPeriod)
	assert.Equal(t, 0, report.Completed)

	pending = db.MustPendingNotifications()
	require.Len(t, pending, 2)
	assert.Equal(t, model.NotificationGoalPostPeriod, pending[1].Kind)
	assert.Equal(t, "Budget Goal: Failed Food goal, exceeded the goal by 20.0% (target $100).", pending[1].Body)

	stored = db.MustGetGoal(goal.ID)
	assert.True(t, stored.PostNotified)
	assert.False(t, stored.OnTrack)
	assert.InDelta(t, 120, stored.Progress, 0.0001)

	// A failed goal earns nothing.
	assert.Equal(t, 0, db.MustGetUser(user.ID).XP)

	clock.Set(t0.Add(days(12)))
	report, err = notifier.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Evaluated)
	assert.Len(t, db.MustPendingNotifications(), 2)
}

func TestNotifier_PercentageGoalCompletionAwardsXP(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	clock := testutil.NewClock(t0.Add(days(7)))

	user := db.MustCreateUser("bob")
	food := db.MustCreateCategory(user.ID, "Food")
	goal, err := model.NewGoal(user.ID, &food.ID, model.GoalKindPercentage, 20, t0, 7)
	require.NoError(t, err)
	db.MustCreateGoal(goal)

	db.MustSpend(user.ID, food.ID, 500, t0.Add(-days(3)))
	db.MustSpend(user.ID, food.ID, 350, t0.Add(days(2)))

	notifier := goals.NewNotifier(db.Storage, clock.Now)
	report, err := notifier.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.PostPeriod)
	assert.Equal(t, 1, report.Completed)
	assert.Equal(t, 1, report.LevelUps)

	pending := db.MustPendingNotifications()
	require.Len(t, pending, 2)
	assert.Equal(t, "Budget Goal: Completed Food goal successfully, spent 30.0% less than the previous period (target 20%).", pending[0].Body)
	assert.Equal(t, model.NotificationLevelUp, pending[1].Kind)
	assert.Equal(t, "Level Up!", pending[1].Title)
	assert.Equal(t, "Congratulations! You reached level 2.", pending[1].Body)

	stored := db.MustGetGoal(goal.ID)
	assert.True(t, stored.OnTrack)
	assert.InDelta(t, 30, stored.Progress, 0.0001)
	// The window ended without the mid-period milestone ever being observed.
	assert.False(t, stored.MidNotified)

	u := db.MustGetUser(user.ID)
	assert.Equal(t, 5, u.XP)
	assert.Equal(t, 2, u.Level)

	// The award happens exactly once however often the notifier runs.
	for i := 0; i < 3; i++ {
		clock.Advance(2 * time.Minute)
		_, err := notifier.Run(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 5, db.MustGetUser(user.ID).XP)
	assert.Len(t, db.MustPendingNotifications(), 2)
}

func TestNotifier_LongGoalAwardsMoreXP(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	user := db.MustCreateUser("carol")
	goal, err := model.NewGoal(user.ID, nil, model.GoalKindAmount, 1000, t0, 30)
	require.NoError(t, err)
	db.MustCreateGoal(goal)

	clock := testutil.NewClock(t0.Add(days(30)))
	report, err := goals.NewNotifier(db.Storage, clock.Now).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Completed)

	pending := db.MustPendingNotifications()
	require.NotEmpty(t, pending)
	assert.Equal(t, "Budget Goal: Completed overall spending goal successfully with a 100.0% margin remaining (target $1000).", pending[0].Body)

	u := db.MustGetUser(user.ID)
	assert.Equal(t, 20, u.XP)
	assert.Equal(t, 3, u.Level)
}

func TestNotifier_SkipsGoalWithMissingCategory(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	user := db.MustCreateUser("dave")
	food := db.MustCreateCategory(user.ID, "Food")

	missing := int64(9999)
	broken, err := model.NewGoal(user.ID, &missing, model.GoalKindAmount, 50, t0, 10)
	require.NoError(t, err)
	db.MustCreateGoal(broken)

	healthy, err := model.NewGoal(user.ID, &food.ID, model.GoalKindAmount, 50, t0, 10)
	require.NoError(t, err)
	db.MustCreateGoal(healthy)

	clock := testutil.NewClock(t0.Add(days(10)))
	report, err := goals.NewNotifier(db.Storage, clock.Now).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Evaluated)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.PostPeriod)

	assert.False(t, db.MustGetGoal(broken.ID).PostNotified)
	assert.True(t, db.MustGetGoal(healthy.ID).PostNotified)

	pending := db.MustPendingNotifications()
	require.Len(t, pending, 2)
	assert.Equal(t, healthy.ID, *pending[0].GoalID)
	assert.Equal(t, model.NotificationLevelUp, pending[1].Kind)
}

func TestRecalculator(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	user := db.MustCreateUser("erin")
	food := db.MustCreateCategory(user.ID, "Food")
	rent := db.MustCreateCategory(user.ID, "Rent")

	foodGoal, err := model.NewGoal(user.ID, &food.ID, model.GoalKindAmount, 100, t0, 10)
	require.NoError(t, err)
	db.MustCreateGoal(foodGoal)

	rentGoal, err := model.NewGoal(user.ID, &rent.ID, model.GoalKindAmount, 100, t0, 10)
	require.NoError(t, err)
	db.MustCreateGoal(rentGoal)

	db.MustSpend(user.ID, food.ID, 150, t0.Add(days(1)))
	db.MustSpend(user.ID, rent.ID, 150, t0.Add(days(1)))

	recalc := goals.NewRecalculator(db.Storage)

	result, err := recalc.Recalculate(ctx, user.ID, &food.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.False(t, db.MustGetGoal(foodGoal.ID).OnTrack)
	assert.True(t, db.MustGetGoal(rentGoal.ID).OnTrack)

	result, err = recalc.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 0, result.Failed)

	stored := db.MustGetGoal(rentGoal.ID)
	assert.False(t, stored.OnTrack)
	assert.InDelta(t, 150, stored.Progress, 0.0001)
}
