package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Veraticus/expense-tracker/internal/goals"
	"github.com/Veraticus/expense-tracker/internal/leveling"
	"github.com/Veraticus/expense-tracker/internal/model"
)

// GoalView is a stored goal alongside progress computed at request time.
type GoalView struct {
	Start        time.Time      `json:"start"`
	End          time.Time      `json:"end"`
	CategoryID   *int64         `json:"category_id"`
	Kind         model.GoalKind `json:"kind"`
	Progress     goals.Progress `json:"progress"`
	ID           int64          `json:"id"`
	Limit        float64        `json:"limit"`
	MidNotified  bool           `json:"mid_notified"`
	PostNotified bool           `json:"post_notified"`
}

func newGoalView(goal *model.Goal, p goals.Progress) GoalView {
	return GoalView{
		ID:           goal.ID,
		CategoryID:   goal.CategoryID,
		Kind:         goal.Kind,
		Limit:        goal.Limit,
		Start:        goal.Start,
		End:          goal.End,
		Progress:     p,
		MidNotified:  goal.MidNotified,
		PostNotified: goal.PostNotified,
	}
}

// UserGoals lists a user's goals with fresh progress.
func (h *Handler) UserGoals(c *fiber.Ctx) error {
	userID, err := idParam(c, "userID")
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	list, err := h.Store.GetGoals(ctx, userID, nil)
	if err != nil {
		return err
	}

	views := make([]GoalView, 0, len(list))
	for i := range list {
		p, err := goals.ComputeProgress(ctx, h.Store, &list[i])
		if err != nil {
			return err
		}
		views = append(views, newGoalView(&list[i], p))
	}

	return c.JSON(fiber.Map{"goals": views})
}

// UserLevel returns the user's XP standing.
func (h *Handler) UserLevel(c *fiber.Ctx) error {
	userID, err := idParam(c, "userID")
	if err != nil {
		return err
	}

	user, err := h.Store.GetUser(c.UserContext(), userID)
	if err != nil {
		return err
	}

	standing := leveling.Derive(user.XP)
	// Levels are never taken away, even if the XP curve would derive a lower one.
	if user.Level > standing.Level {
		standing.Level = user.Level
	}
	return c.JSON(standing)
}
