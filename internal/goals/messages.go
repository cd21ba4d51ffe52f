package goals

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/expense-tracker/internal/model"
)

// NotificationTitle is the push title of every goal notification.
const NotificationTitle = "Expense Tracker Goal!"

// GlobalGoalLabel names goals that cover every category.
const GlobalGoalLabel = "overall spending"

// Milestone is a point in a goal's lifecycle that produces a notification.
type Milestone int

const (
	// MilestoneNone means nothing is due.
	MilestoneNone Milestone = iota
	// MilestoneMidPeriod fires once 80% of the window has elapsed.
	MilestoneMidPeriod
	// MilestonePostPeriod fires once the window has ended.
	MilestonePostPeriod
)

// MidPeriodThreshold is the elapsed fraction at which the mid-period milestone is due.
const MidPeriodThreshold = 0.8

func (m Milestone) String() string {
	switch m {
	case MilestoneMidPeriod:
		return "mid_period"
	case MilestonePostPeriod:
		return "post_period"
	default:
		return "none"
	}
}

func (m Milestone) kind() model.NotificationKind {
	if m == MilestonePostPeriod {
		return model.NotificationGoalPostPeriod
	}
	return model.NotificationGoalMidPeriod
}

// Message builds the notification body for a goal at milestone m.
func Message(m Milestone, goal *model.Goal, label string, p Progress) string {
	if goal.Kind == model.GoalKindPercentage {
		return percentageMessage(m, goal, label, p)
	}
	return amountMessage(m, goal, label, p)
}

func amountMessage(m Milestone, goal *model.Goal, label string, p Progress) string {
	limit := money(goal.Limit)

	if p.OnTrack {
		remaining := pct((goal.Limit - p.CurrentSpent) / goal.Limit * 100)
		if m == MilestonePostPeriod {
			return fmt.Sprintf("Budget Goal: Completed %s goal successfully with a %s%% margin remaining (target $%s).",
				label, remaining, limit)
		}
		return fmt.Sprintf("Budget Goal: You are on track to complete your spending goal for %s. You are %s%% away from breaking your spending limit (target $%s).",
			label, remaining, limit)
	}

	exceeded := pct((p.CurrentSpent - goal.Limit) / goal.Limit * 100)
	if m == MilestonePostPeriod {
		return fmt.Sprintf("Budget Goal: Failed %s goal, exceeded the goal by %s%% (target $%s).",
			label, exceeded, limit)
	}
	return fmt.Sprintf("Budget Goal: You are NOT on track to complete your spending goal for %s. You have exceeded your spending limit by %s%% (target $%s).",
		label, exceeded, limit)
}

func percentageMessage(m Milestone, goal *model.Goal, label string, p Progress) string {
	target := money(goal.Limit)
	change := pct(abs(p.Value))

	if m == MilestonePostPeriod {
		switch {
		case p.OnTrack:
			return fmt.Sprintf("Budget Goal: Completed %s goal successfully, spent %s%% less than the previous period (target %s%%).",
				label, change, target)
		case p.Value < 0:
			return fmt.Sprintf("Budget Goal: Failed %s goal, spent %s%% more than the previous period (target %s%%).",
				label, change, target)
		default:
			return fmt.Sprintf("Budget Goal: Failed %s goal, spent %s%% less than the previous period (target %s%%).",
				label, change, target)
		}
	}

	switch {
	case p.OnTrack:
		return fmt.Sprintf("Budget Goal: You are on track to complete your spending goal for %s. You have spent %s%% below the previous period (target %s%%).",
			label, change, target)
	case p.Value < 0:
		return fmt.Sprintf("Budget Goal: You are NOT on track to complete your spending goal for %s. You have spent %s%% above the previous period (target %s%%).",
			label, change, target)
	default:
		return fmt.Sprintf("Budget Goal: You are NOT on track to complete your spending goal for %s. You have spent %s%% below the previous period (target %s%%).",
			label, change, target)
	}
}

// pct renders a percentage with one decimal place.
func pct(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1)
}

// money renders a limit without trailing zeros.
func money(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
