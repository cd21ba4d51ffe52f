package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/expense-tracker/internal/cli"
	"github.com/Veraticus/expense-tracker/internal/goals"
	"github.com/Veraticus/expense-tracker/internal/model"
	"github.com/Veraticus/expense-tracker/internal/ofx"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import transactions from OFX or QFX (Quicken) files exported from your bank
into a user's ledger. Entries already imported are skipped.

Examples:
  # Import one statement as groceries
  tracker import-ofx --user 1 --category Groceries ~/Downloads/checking_mar.qfx

  # Import every statement in a directory
  tracker import-ofx --user 1 --category Shopping ~/Downloads/Card/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().Int64("user", 0, "user id that owns the transactions")
	cmd.Flags().String("category", "", "category name to file the transactions under")
	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetInt64("user")
	categoryName, _ := cmd.Flags().GetString("category")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	ctx := cmd.Context()

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	cat, err := findCategory(ctx, store, categoryName, userID)
	if err != nil {
		return err
	}

	slog.Info("Importing OFX files",
		"file_count", len(files),
		"user_id", userID,
		"category", cat.Name,
		"dry_run", dryRun)

	parser := ofx.NewParser()
	var all []model.Transaction
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			slog.Error("Failed to open file", "file", path, "error", err)
			continue
		}
		txns, err := parser.ParseFile(ctx, f, userID, cat.ID)
		_ = f.Close()
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", path, "error", err)
			continue
		}
		slog.Info("Processed file", "file", filepath.Base(path), "transactions", len(txns))
		all = append(all, txns...)
	}

	if len(all) == 0 {
		fmt.Println(cli.FormatWarning("No transactions found in any file"))
		return nil
	}

	if dryRun {
		fmt.Println(cli.FormatInfo(fmt.Sprintf("Dry run: %d transactions parsed, nothing saved", len(all))))
		return nil
	}

	inserted, err := store.SaveTransactions(ctx, all)
	if err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	// Refresh cached progress so the new spending shows up before the next loop.
	if _, err := goals.NewRecalculator(store).Recalculate(ctx, userID, &cat.ID); err != nil {
		slog.Warn("failed to refresh goal progress", "user_id", userID, "error", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d new transactions (%d already present)",
		inserted, len(all)-inserted)))
	return nil
}

// expandFiles resolves globs, keeping literal paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) > 0 {
			files = append(files, matches...)
			continue
		}
		if _, err := os.Stat(pattern); err == nil {
			files = append(files, pattern)
		} else {
			slog.Warn("No files found matching pattern", "pattern", pattern)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}
