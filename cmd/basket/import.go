package main

import (
	"fmt"
	"log/slog"

	"github.com/lunaris-labs/basket/internal/cli"
	"github.com/lunaris-labs/basket/internal/importer"
	"github.com/lunaris-labs/basket/internal/rank"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a retail transaction CSV",
		Long: `Import a transaction log into the local database.

Rows with a missing customer id, non-positive quantities or prices, or
unparseable fields are dropped and counted; surviving rows are deduplicated
automatically.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().Bool("dry-run", false, "Clean and summarize without saving")
	_ = viper.BindPFlag("import.dry_run", cmd.Flags().Lookup("dry-run"))

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	slog.Info(cli.FormatTitle("Importing transactions"))

	result, err := importer.LoadFile(path)
	if err != nil {
		return err
	}

	stats := result.Stats
	summary := fmt.Sprintf(`Rows read:          %d
Kept:               %d
Missing customer:   %d
Non-positive value: %d
Malformed:          %d`,
		stats.Rows, stats.Kept, stats.MissingCustomer, stats.NonPositive, stats.Malformed)

	if topRanks := rank.Aggregate(result.Transactions, 5); len(topRanks) > 0 {
		summary += "\n\nTop products in this file:\n"
		for i, r := range topRanks {
			summary += fmt.Sprintf("%d. %s %s (%d units)\n", i+1, r.StockCode, r.Description, r.Quantity)
		}
	}

	if viper.GetBool("import.dry_run") {
		slog.Info(cli.FormatWarning("Dry run mode - not saving to database"))
		fmt.Println(cli.RenderBox("Import Summary", summary))
		return nil
	}

	if stats.Kept == 0 {
		slog.Info(cli.FormatWarning("No usable rows in input file"))
		fmt.Println(cli.RenderBox("Import Summary", summary))
		return nil
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveTransactions(ctx, result.Transactions); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	total, err := store.CountTransactions(ctx)
	if err != nil {
		return fmt.Errorf("failed to count transactions: %w", err)
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Import complete, %d transactions in database", total)))
	fmt.Println(cli.RenderBox("Import Summary", summary))

	return nil
}
