package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/expense-tracker/internal/cli"
	"github.com/Veraticus/expense-tracker/internal/scheduler"
)

func triggerCmd() *cobra.Command {
	loops := []string{scheduler.LoopGoals, scheduler.LoopRecurring, scheduler.LoopHealthcheck}

	return &cobra.Command{
		Use:       "trigger " + strings.Join(loops, "|"),
		Short:     "Run one iteration of a loop now",
		ValidArgs: loops,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			if err := e.scheduler.Trigger(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("%s loop failed: %w", args[0], err)
			}
			fmt.Println(cli.FormatSuccess(args[0] + " loop completed"))
			return nil
		},
	}
}
