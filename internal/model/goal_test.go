package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGoal(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	category := int64(7)

	tests := []struct {
		wantErr    error
		categoryID *int64
		name       string
		kind       GoalKind
		limit      float64
		days       int
	}{
		{name: "global amount goal", kind: GoalKindAmount, limit: 100, days: 10},
		{name: "category percentage goal", kind: GoalKindPercentage, categoryID: &category, limit: 20, days: 7},
		{name: "percentage without category", kind: GoalKindPercentage, limit: 20, days: 7, wantErr: ErrGoalNeedsCategory},
		{name: "zero limit", kind: GoalKindAmount, limit: 0, days: 7, wantErr: ErrInvalidGoalLimit},
		{name: "unknown kind", kind: "ratio", limit: 10, days: 7, wantErr: ErrInvalidGoalKind},
		{name: "zero duration", kind: GoalKindAmount, limit: 10, days: 0, wantErr: ErrInvalidGoalLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal, err := NewGoal(1, tt.categoryID, tt.kind, tt.limit, start, tt.days)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, start, goal.Start)
			assert.Equal(t, start.AddDate(0, 0, tt.days), goal.End)
			assert.False(t, goal.MidNotified)
			assert.False(t, goal.PostNotified)
		})
	}
}

func TestGoalElapsedFraction(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	goal := &Goal{Start: start, End: start.AddDate(0, 0, 10)}

	fraction, ok := goal.ElapsedFraction(start.AddDate(0, 0, 8))
	require.True(t, ok)
	assert.InDelta(t, 0.8, fraction, 1e-9)

	fraction, ok = goal.ElapsedFraction(start.Add(-time.Hour))
	require.True(t, ok)
	assert.Less(t, fraction, 0.0)

	empty := &Goal{Start: start, End: start}
	_, ok = empty.ElapsedFraction(start)
	assert.False(t, ok)
}

func TestGoalPreviousWindow(t *testing.T) {
	start := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)
	goal := &Goal{Start: start, End: start.AddDate(0, 0, 7)}

	prevStart, prevEnd := goal.PreviousWindow()
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), prevStart)
	assert.Equal(t, start, prevEnd)
}

func TestNewDealView(t *testing.T) {
	view := NewDealView(Deal{ID: 3, Vendor: "Corner Bakery"}, 5, 2)
	assert.Equal(t, 3, view.Score)
	assert.Equal(t, "Corner Bakery", view.Vendor)
}
