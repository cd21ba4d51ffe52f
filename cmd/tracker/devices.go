package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/expense-tracker/internal/cli"
)

func devicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Manage push registrations",
	}

	register := &cobra.Command{
		Use:   "register TOKEN",
		Short: "Register an FCM device token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetInt64("user")
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.RegisterDeviceToken(ctx, userID, args[0]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Registered device for user %d", userID)))
			return nil
		},
	}
	register.Flags().Int64("user", 0, "user id")
	_ = register.MarkFlagRequired("user")

	cmd.AddCommand(register)
	return cmd
}
