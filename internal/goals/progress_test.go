package goals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/expense-tracker/internal/model"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) SumAmount(ctx context.Context, q model.SpendQuery) (float64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockLedger) UsersWithActiveGoals(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]int64)
	return users, args.Error(1)
}

var start = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

func currentWindow(q model.SpendQuery) bool {
	return q.Start.Equal(start) && !q.ExcludeEnd
}

func previousWindow(q model.SpendQuery) bool {
	return q.End.Equal(start) && q.ExcludeEnd
}

func TestComputeProgress_Amount(t *testing.T) {
	ctx := context.Background()
	cat := int64(3)

	tests := []struct {
		name    string
		spent   float64
		onTrack bool
	}{
		{name: "under limit", spent: 40, onTrack: true},
		{name: "at limit", spent: 100, onTrack: true},
		{name: "over limit", spent: 120, onTrack: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal, err := model.NewGoal(1, &cat, model.GoalKindAmount, 100, start, 10)
			require.NoError(t, err)

			ledger := &mockLedger{}
			ledger.On("SumAmount", ctx, mock.MatchedBy(func(q model.SpendQuery) bool {
				return currentWindow(q) && q.End.Equal(goal.End) && *q.CategoryID == cat && q.UserID == 1
			})).Return(tt.spent, nil).Once()

			p, err := ComputeProgress(ctx, ledger, goal)
			require.NoError(t, err)
			assert.InDelta(t, tt.spent, p.Value, 0.0001)
			assert.Equal(t, tt.onTrack, p.OnTrack)
			ledger.AssertExpectations(t)
		})
	}
}

func TestComputeProgress_GlobalAmountGoal(t *testing.T) {
	ctx := context.Background()
	goal, err := model.NewGoal(1, nil, model.GoalKindAmount, 1000, start, 30)
	require.NoError(t, err)

	ledger := &mockLedger{}
	ledger.On("SumAmount", ctx, mock.MatchedBy(func(q model.SpendQuery) bool {
		return q.CategoryID == nil
	})).Return(250.0, nil)

	p, err := ComputeProgress(ctx, ledger, goal)
	require.NoError(t, err)
	assert.True(t, p.OnTrack)
	assert.InDelta(t, 250, p.CurrentSpent, 0.0001)
}

func TestComputeProgress_Percentage(t *testing.T) {
	ctx := context.Background()
	cat := int64(3)

	tests := []struct {
		name    string
		prev    float64
		curr    float64
		limit   float64
		want    float64
		onTrack bool
	}{
		{name: "reduced enough", prev: 500, curr: 350, limit: 20, want: 30, onTrack: true},
		{name: "reduced too little", prev: 500, curr: 450, limit: 20, want: 10, onTrack: false},
		{name: "spent more", prev: 200, curr: 300, limit: 10, want: -50, onTrack: false},
		{name: "no spending either period", prev: 0, curr: 0, limit: 50, want: 100, onTrack: true},
		{name: "no baseline but spending now", prev: 0, curr: 10, limit: 1, want: 0, onTrack: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal, err := model.NewGoal(1, &cat, model.GoalKindPercentage, tt.limit, start, 7)
			require.NoError(t, err)

			ledger := &mockLedger{}
			ledger.On("SumAmount", ctx, mock.MatchedBy(func(q model.SpendQuery) bool {
				return previousWindow(q) && q.Start.Equal(start.AddDate(0, 0, -7))
			})).Return(tt.prev, nil).Once()
			ledger.On("SumAmount", ctx, mock.MatchedBy(currentWindow)).Return(tt.curr, nil).Once()

			p, err := ComputeProgress(ctx, ledger, goal)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, p.Value, 0.0001)
			assert.Equal(t, tt.onTrack, p.OnTrack)
			assert.InDelta(t, tt.prev, p.PreviousSpent, 0.0001)
			assert.InDelta(t, tt.curr, p.CurrentSpent, 0.0001)
			ledger.AssertExpectations(t)
		})
	}
}

func TestComputeProgress_Errors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	t.Run("ledger failure", func(t *testing.T) {
		goal, err := model.NewGoal(1, nil, model.GoalKindAmount, 10, start, 1)
		require.NoError(t, err)

		ledger := &mockLedger{}
		ledger.On("SumAmount", ctx, mock.Anything).Return(0.0, boom)

		_, err = ComputeProgress(ctx, ledger, goal)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("unknown kind", func(t *testing.T) {
		goal := &model.Goal{UserID: 1, Kind: "ratio", Limit: 1, Start: start, End: start}
		_, err := ComputeProgress(ctx, &mockLedger{}, goal)
		assert.ErrorIs(t, err, model.ErrInvalidGoalKind)
	})

	t.Run("percentage without category", func(t *testing.T) {
		goal := &model.Goal{UserID: 1, Kind: model.GoalKindPercentage, Limit: 1, Start: start, End: start}
		_, err := ComputeProgress(ctx, &mockLedger{}, goal)
		assert.ErrorIs(t, err, model.ErrGoalNeedsCategory)
	})
}

func TestReduction(t *testing.T) {
	assert.InDelta(t, 30, Reduction(500, 350), 0.0001)
	assert.InDelta(t, -50, Reduction(200, 300), 0.0001)
	assert.InDelta(t, 100, Reduction(0, 0), 0.0001)
	assert.InDelta(t, 0, Reduction(0, 0.01), 0.0001)
	assert.InDelta(t, 0, Reduction(-5, 0.01), 0.0001)
}
