// Package leveling implements the XP curve shared by goal completion awards
// and profile display.
package leveling

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/expense-tracker/internal/model"
)

const (
	// FirstLevelThreshold is the XP needed to leave level 1. Each later level needs twice the previous.
	FirstLevelThreshold = 5

	// ShortGoalXP is awarded for completing a goal shorter than LongGoalDays.
	ShortGoalXP = 5
	// LongGoalXP is awarded for completing a goal of LongGoalDays or more.
	LongGoalXP = 20
	// LongGoalDays is the whole-day length at which a goal earns LongGoalXP.
	LongGoalDays = 8

	// LevelUpTitle is the push title of a level-up notification.
	LevelUpTitle = "Level Up!"
)

// Standing is a user's position on the XP curve.
type Standing struct {
	XP             int `json:"xp"`
	Level          int `json:"level"`
	XPIntoLevel    int `json:"xp_into_level"`
	XPForNextLevel int `json:"xp_for_next_level"`
}

// Derive places totalXP on the curve: thresholds 5, 10, 20, 40, ... starting at level 1.
func Derive(totalXP int) Standing {
	if totalXP < 0 {
		totalXP = 0
	}

	level := 1
	need := FirstLevelThreshold
	remaining := totalXP
	for remaining >= need {
		remaining -= need
		level++
		need *= 2
	}

	return Standing{
		XP:             totalXP,
		Level:          level,
		XPIntoLevel:    remaining,
		XPForNextLevel: need,
	}
}

// Apply adds delta to totalXP and re-derives the standing. It reports whether
// the level increased.
func Apply(totalXP, delta int) (Standing, bool) {
	before := Derive(totalXP)
	after := Derive(totalXP + delta)
	return after, after.Level > before.Level
}

// AwardForPeriod returns the XP earned by completing a goal spanning start to end.
func AwardForPeriod(start, end time.Time) int {
	days := int(end.Sub(start) / (24 * time.Hour))
	if days < LongGoalDays {
		return ShortGoalXP
	}
	return LongGoalXP
}

// LevelUpMessage is the body of a level-up notification.
func LevelUpMessage(level int) string {
	return fmt.Sprintf("Congratulations! You reached level %d.", level)
}

// Store is what Award needs from a storage transaction.
type Store interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	SaveUser(ctx context.Context, user *model.User) error
	EnqueueNotification(ctx context.Context, n *model.Notification) error
}

// Award adds xp to a user and queues a level-up notification when this award
// crosses a threshold above the stored level. A stored level that lags the
// XP curve is raised silently. Levels never go down.
func Award(ctx context.Context, store Store, userID int64, xp int) (Standing, bool, error) {
	user, err := store.GetUser(ctx, userID)
	if err != nil {
		return Standing{}, false, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	standing, crossed := Apply(user.XP, xp)
	leveledUp := crossed && standing.Level > user.Level

	user.XP = standing.XP
	if standing.Level > user.Level {
		user.Level = standing.Level
	}
	if err := store.SaveUser(ctx, user); err != nil {
		return Standing{}, false, fmt.Errorf("failed to save user %d: %w", userID, err)
	}

	if leveledUp {
		if err := store.EnqueueNotification(ctx, &model.Notification{
			UserID: userID,
			Kind:   model.NotificationLevelUp,
			Title:  LevelUpTitle,
			Body:   LevelUpMessage(user.Level),
		}); err != nil {
			return Standing{}, false, fmt.Errorf("failed to queue level-up notification: %w", err)
		}
		slog.Info("user leveled up", "user_id", userID, "level", user.Level, "xp", user.XP)
	}

	return standing, leveledUp, nil
}
