package model

import (
	"errors"
	"fmt"
	"time"
)

// GoalKind selects how a goal measures success.
type GoalKind string

const (
	// GoalKindAmount caps total spending at Limit.
	GoalKindAmount GoalKind = "amount"
	// GoalKindPercentage requires spending Limit percent less than the previous period.
	GoalKindPercentage GoalKind = "percentage"
)

// Goal validation errors.
var (
	ErrInvalidGoalKind   = errors.New("invalid goal kind")
	ErrInvalidGoalLimit  = errors.New("goal limit must be positive")
	ErrInvalidGoalPeriod = errors.New("goal end must not be before start")
	ErrGoalNeedsCategory = errors.New("percentage goals require a category")
	ErrInvalidGoalOwner  = errors.New("goal owner is required")
	ErrInvalidGoalLength = errors.New("goal duration must be positive")
)

// Goal is a spending target over a fixed window.
//
// Progress holds the amount spent for amount goals and the reduction
// percentage for percentage goals. OnTrack and Progress are derived and
// rewritten on every recompute; MidNotified and PostNotified only ever move
// from false to true.
type Goal struct {
	Start        time.Time
	End          time.Time
	CreatedAt    time.Time
	CategoryID   *int64
	Kind         GoalKind
	ID           int64
	UserID       int64
	Limit        float64
	Progress     float64
	OnTrack      bool
	MidNotified  bool
	PostNotified bool
}

// NewGoal builds a goal whose window starts at start and lasts durationDays.
func NewGoal(userID int64, categoryID *int64, kind GoalKind, limit float64, start time.Time, durationDays int) (*Goal, error) {
	if durationDays <= 0 {
		return nil, fmt.Errorf("%w: %d days", ErrInvalidGoalLength, durationDays)
	}

	start = start.UTC()
	g := &Goal{
		UserID:     userID,
		CategoryID: categoryID,
		Kind:       kind,
		Limit:      limit,
		Start:      start,
		End:        start.AddDate(0, 0, durationDays),
		OnTrack:    true,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks the structural invariants of a goal.
func (g *Goal) Validate() error {
	if g.UserID <= 0 {
		return ErrInvalidGoalOwner
	}
	switch g.Kind {
	case GoalKindAmount:
	case GoalKindPercentage:
		if g.CategoryID == nil {
			return ErrGoalNeedsCategory
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidGoalKind, g.Kind)
	}
	if g.Limit <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidGoalLimit, g.Limit)
	}
	if g.End.Before(g.Start) {
		return ErrInvalidGoalPeriod
	}
	return nil
}

// Duration returns the length of the goal window.
func (g *Goal) Duration() time.Duration {
	return g.End.Sub(g.Start)
}

// ElapsedFraction reports how much of the window has passed at now.
// It returns false for zero-length windows.
func (g *Goal) ElapsedFraction(now time.Time) (float64, bool) {
	total := g.Duration()
	if total <= 0 {
		return 0, false
	}
	return float64(now.Sub(g.Start)) / float64(total), true
}

// PreviousWindow returns the equal-length window immediately before Start.
func (g *Goal) PreviousWindow() (time.Time, time.Time) {
	return g.Start.Add(-g.Duration()), g.Start
}

// IsGlobal reports whether the goal covers all categories.
func (g *Goal) IsGlobal() bool {
	return g.CategoryID == nil
}
