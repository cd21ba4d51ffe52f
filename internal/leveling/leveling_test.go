package leveling

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

func TestDerive(t *testing.T) {
	tests := []struct {
		name string
		xp   int
		want Standing
	}{
		{name: "fresh account", xp: 0, want: Standing{XP: 0, Level: 1, XPIntoLevel: 0, XPForNextLevel: 5}},
		{name: "just below first threshold", xp: 4, want: Standing{XP: 4, Level: 1, XPIntoLevel: 4, XPForNextLevel: 5}},
		{name: "first threshold", xp: 5, want: Standing{XP: 5, Level: 2, XPIntoLevel: 0, XPForNextLevel: 10}},
		{name: "second threshold", xp: 15, want: Standing{XP: 15, Level: 3, XPIntoLevel: 0, XPForNextLevel: 20}},
		{name: "between thresholds", xp: 30, want: Standing{XP: 30, Level: 3, XPIntoLevel: 15, XPForNextLevel: 20}},
		{name: "fourth threshold", xp: 75, want: Standing{XP: 75, Level: 5, XPIntoLevel: 0, XPForNextLevel: 80}},
		{name: "negative clamps to zero", xp: -3, want: Standing{XP: 0, Level: 1, XPIntoLevel: 0, XPForNextLevel: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Derive(tt.xp))
		})
	}
}

func TestDerive_Monotonic(t *testing.T) {
	prev := Derive(0)
	for xp := 1; xp <= 500; xp++ {
		cur := Derive(xp)
		assert.GreaterOrEqual(t, cur.Level, prev.Level, "xp %d", xp)
		if cur.Level > prev.Level {
			assert.Contains(t, []int{5, 15, 35, 75, 155, 315}, xp)
		}
		prev = cur
	}
}

func TestApply(t *testing.T) {
	standing, up := Apply(0, 5)
	assert.True(t, up)
	assert.Equal(t, 2, standing.Level)

	standing, up = Apply(5, 5)
	assert.False(t, up)
	assert.Equal(t, 2, standing.Level)

	standing, up = Apply(10, 20)
	assert.True(t, up)
	assert.Equal(t, 3, standing.Level)
}

func TestAwardForPeriod(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, ShortGoalXP, AwardForPeriod(start, start.AddDate(0, 0, 7)))
	assert.Equal(t, ShortGoalXP, AwardForPeriod(start, start.Add(8*24*time.Hour-time.Second)))
	assert.Equal(t, LongGoalXP, AwardForPeriod(start, start.AddDate(0, 0, 8)))
	assert.Equal(t, LongGoalXP, AwardForPeriod(start, start.AddDate(0, 0, 30)))
	assert.Equal(t, ShortGoalXP, AwardForPeriod(start, start))
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *mockStore) SaveUser(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockStore) EnqueueNotification(ctx context.Context, n *model.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func TestAward_LevelUpQueuesNotification(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{}

	store.On("GetUser", ctx, int64(7)).Return(&model.User{ID: 7, Username: "alice", XP: 3, Level: 1}, nil)
	store.On("SaveUser", ctx, mock.MatchedBy(func(u *model.User) bool {
		return u.XP == 8 && u.Level == 2
	})).Return(nil)
	store.On("EnqueueNotification", ctx, mock.MatchedBy(func(n *model.Notification) bool {
		return n.Kind == model.NotificationLevelUp &&
			n.Title == "Level Up!" &&
			n.Body == "Congratulations! You reached level 2." &&
			n.UserID == 7
	})).Return(nil)

	standing, up, err := Award(ctx, store, 7, 5)
	require.NoError(t, err)
	assert.True(t, up)
	assert.Equal(t, 2, standing.Level)
	store.AssertExpectations(t)
}

func TestAward_NoLevelUp(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{}

	store.On("GetUser", ctx, int64(7)).Return(&model.User{ID: 7, Username: "alice", XP: 5, Level: 2}, nil)
	store.On("SaveUser", ctx, mock.Anything).Return(nil)

	_, up, err := Award(ctx, store, 7, 5)
	require.NoError(t, err)
	assert.False(t, up)
	store.AssertNotCalled(t, "EnqueueNotification", mock.Anything, mock.Anything)
}

func TestAward_StoredLevelNeverDecreases(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{}

	// A level granted out of band stays put even though the XP curve says otherwise.
	store.On("GetUser", ctx, int64(7)).Return(&model.User{ID: 7, Username: "alice", XP: 0, Level: 4}, nil)
	store.On("SaveUser", ctx, mock.MatchedBy(func(u *model.User) bool {
		return u.XP == 5 && u.Level == 4
	})).Return(nil)

	_, up, err := Award(ctx, store, 7, 5)
	require.NoError(t, err)
	assert.False(t, up)
	store.AssertExpectations(t)
}

func TestAward_PropagatesErrors(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{}
	boom := errors.New("boom")

	store.On("GetUser", ctx, int64(7)).Return(nil, boom)

	_, _, err := Award(ctx, store, 7, 5)
	assert.ErrorIs(t, err, boom)
}

func TestAward_StaleStoredLevelCatchesUpQuietly(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{}

	// 17 XP is already level 3 on the curve; the stored level lags behind.
	store.On("GetUser", ctx, int64(7)).Return(&model.User{ID: 7, Username: "alice", XP: 17, Level: 1}, nil)
	store.On("SaveUser", ctx, mock.MatchedBy(func(u *model.User) bool {
		return u.XP == 22 && u.Level == 3
	})).Return(nil)

	standing, up, err := Award(ctx, store, 7, 5)
	require.NoError(t, err)
	assert.False(t, up)
	assert.Equal(t, 3, standing.Level)
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "EnqueueNotification", mock.Anything, mock.Anything)
}
