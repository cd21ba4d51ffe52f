package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/expense-tracker/internal/cli"
	"github.com/Veraticus/expense-tracker/internal/common"
	"github.com/Veraticus/expense-tracker/internal/goals"
	"github.com/Veraticus/expense-tracker/internal/leveling"
	"github.com/Veraticus/expense-tracker/internal/model"
	"github.com/Veraticus/expense-tracker/internal/storage"
)

const dateLayout = "2006-01-02"

func goalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Inspect and create spending goals",
	}
	cmd.AddCommand(goalsListCmd())
	cmd.AddCommand(goalsAddCmd())
	return cmd
}

func goalsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show a user's goals with live progress",
		RunE:  runGoalsList,
	}
	cmd.Flags().Int64("user", 0, "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runGoalsList(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetInt64("user")
	ctx := cmd.Context()

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	user, err := store.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	list, err := store.GetGoals(ctx, userID, nil)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(list))
	for i := range list {
		goal := &list[i]
		p, err := goals.ComputeProgress(ctx, store, goal)
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			strconv.FormatInt(goal.ID, 10),
			goalLabel(ctx, store, goal),
			string(goal.Kind),
			formatTarget(goal),
			formatProgress(goal, p),
			goal.Start.Format(dateLayout) + " → " + goal.End.Format(dateLayout),
			cli.StatusText(p.OnTrack),
			lifecycle(goal),
		})
	}

	standing := leveling.Derive(user.XP)
	fmt.Println(cli.FormatTitle(fmt.Sprintf("Goals for %s", user.Username)))
	fmt.Println(cli.RenderBox("Level "+strconv.Itoa(max(user.Level, standing.Level)),
		fmt.Sprintf("%d XP total, %d/%d toward the next level", standing.XP, standing.XPIntoLevel, standing.XPForNextLevel)))

	if len(rows) == 0 {
		fmt.Println(cli.FormatInfo("No goals yet"))
		return nil
	}
	fmt.Println(cli.RenderTable(
		[]string{"ID", "Category", "Kind", "Target", "Progress", "Window", "Status", "Notified"},
		rows))
	return nil
}

func goalLabel(ctx context.Context, store *storage.SQLiteStorage, goal *model.Goal) string {
	if goal.IsGlobal() {
		return goals.GlobalGoalLabel
	}
	cat, err := store.GetCategory(ctx, *goal.CategoryID)
	if err != nil {
		return cli.SubtleStyle.Render("(missing)")
	}
	return cat.Name
}

func formatTarget(goal *model.Goal) string {
	limit := decimal.NewFromFloat(goal.Limit)
	if goal.Kind == model.GoalKindPercentage {
		return limit.String() + "% less"
	}
	return "$" + limit.StringFixed(2)
}

func formatProgress(goal *model.Goal, p goals.Progress) string {
	if goal.Kind == model.GoalKindPercentage {
		return decimal.NewFromFloat(p.Value).StringFixed(1) + "%"
	}
	return "$" + decimal.NewFromFloat(p.Value).StringFixed(2)
}

func lifecycle(goal *model.Goal) string {
	switch {
	case goal.PostNotified:
		return "done"
	case goal.MidNotified:
		return "mid"
	default:
		return "-"
	}
}

func goalsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a spending goal",
		Long: `Create an amount goal (spend at most --limit dollars) or a percentage goal
(spend --limit percent less than the previous period of the same length).
Omit --category for an amount goal across all spending.`,
		RunE: runGoalsAdd,
	}
	cmd.Flags().Int64("user", 0, "user id")
	cmd.Flags().String("category", "", "category name (empty for all spending)")
	cmd.Flags().String("kind", string(model.GoalKindAmount), "goal kind (amount, percentage)")
	cmd.Flags().Float64("limit", 0, "dollar cap or reduction percentage")
	cmd.Flags().Int("days", 7, "goal length in days")
	cmd.Flags().String("start", "", "start date YYYY-MM-DD (default: today)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("limit")
	return cmd
}

func runGoalsAdd(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetInt64("user")
	categoryName, _ := cmd.Flags().GetString("category")
	kind, _ := cmd.Flags().GetString("kind")
	limit, _ := cmd.Flags().GetFloat64("limit")
	days, _ := cmd.Flags().GetInt("days")
	startFlag, _ := cmd.Flags().GetString("start")
	ctx := cmd.Context()

	start := time.Now().UTC().Truncate(24 * time.Hour)
	if startFlag != "" {
		parsed, err := time.Parse(dateLayout, startFlag)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		start = parsed
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var categoryID *int64
	if categoryName != "" {
		cat, err := findCategory(ctx, store, categoryName, userID)
		if err != nil {
			return err
		}
		categoryID = &cat.ID
	}

	goal, err := model.NewGoal(userID, categoryID, model.GoalKind(kind), limit, start, days)
	if err != nil {
		return err
	}
	if err := store.CreateGoal(ctx, goal); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created goal %d (%s, %s, ends %s)",
		goal.ID, goal.Kind, formatTarget(goal), goal.End.Format(dateLayout))))
	return nil
}

// findCategory prefers the user's own category and falls back to a shared one.
func findCategory(ctx context.Context, store *storage.SQLiteStorage, name string, userID int64) (*model.Category, error) {
	cat, err := store.GetCategoryByName(ctx, name, &userID)
	if errors.Is(err, common.ErrNotFound) {
		cat, err = store.GetCategoryByName(ctx, name, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("category %q: %w", name, err)
	}
	return cat, nil
}
