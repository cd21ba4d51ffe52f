package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/expense-tracker/internal/api"
	"github.com/Veraticus/expense-tracker/internal/cli"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the notification loops and the ops HTTP server",
		Long: `Start the goal, recurring-payment and healthcheck loops together with the
HTTP endpoints used for healthchecks and manual triggers.

The goal and recurring loops run immediately on start and then every
configured interval; the healthcheck push goes out every hour by default.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	cmd.Flags().Bool("no-http", false, "run the loops without the HTTP server")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	noHTTP, _ := cmd.Flags().GetBool("no-http")
	if addr == "" {
		addr = cfg.ServerAddr
	}

	ctx := cli.NewInterruptHandler(os.Stderr).HandleInterrupts(cmd.Context(), "Server")

	e, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	slog.Info("starting tracker",
		"database", cfg.DatabasePath,
		"goal_interval", cfg.Scheduler.GoalInterval,
		"recurring_interval", cfg.Scheduler.RecurringInterval,
		"healthcheck_interval", cfg.Scheduler.HealthcheckInterval,
		"push_enabled", cfg.Push.Enabled)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.scheduler.Run(ctx)
	})

	if !noHTTP {
		app := api.NewApp(api.NewHandler(e.store, e.scheduler, e.alerter))
		g.Go(func() error {
			slog.Info("ops server listening", "addr", addr)
			if err := app.Listen(addr); err != nil {
				return fmt.Errorf("ops server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return app.ShutdownWithContext(context.WithoutCancel(ctx))
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("tracker stopped")
	return nil
}
