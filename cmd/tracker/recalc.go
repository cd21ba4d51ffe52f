package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/expense-tracker/internal/cli"
	"github.com/Veraticus/expense-tracker/internal/goals"
)

func recalcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recalc",
		Short: "Recompute stored progress for every active goal",
		Long: `Recompute the cached progress and on-track status of every goal that has
not finished its lifecycle. No notifications are sent.`,
		RunE: runRecalc,
	}

	cmd.Flags().Int64("user", 0, "only recalculate this user's goals")

	return cmd
}

func runRecalc(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetInt64("user")
	ctx := cli.NewInterruptHandler(os.Stderr).HandleInterrupts(cmd.Context(), "Recalculation")

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	users := []int64{userID}
	if userID == 0 {
		users, err = store.UsersWithActiveGoals(ctx)
		if err != nil {
			return err
		}
	}
	if len(users) == 0 {
		fmt.Println(cli.FormatInfo("No active goals to recalculate"))
		return nil
	}

	bar := progressbar.NewOptions(len(users),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Recalculating goals...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)

	recalculator := goals.NewRecalculator(store)
	var total goals.RecalcResult
	for _, id := range users {
		if ctx.Err() != nil {
			break
		}
		result, err := recalculator.Recalculate(ctx, id, nil)
		if err != nil {
			slog.Error("failed to recalculate user goals", "user_id", id, "error", err)
		}
		total.Updated += result.Updated
		total.Failed += result.Failed

		if err := bar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}

	msg := fmt.Sprintf("Updated %d goals for %d users", total.Updated, len(users))
	if total.Failed > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%s, %d failed", msg, total.Failed)))
		return nil
	}
	fmt.Println(cli.FormatSuccess(msg))
	return nil
}
