package main

import (
	"fmt"
	"log/slog"

	"github.com/lunaris-labs/basket/internal/basket"
	"github.com/lunaris-labs/basket/internal/cli"
	"github.com/lunaris-labs/basket/internal/mine"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func mineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Mine association rules from imported transactions",
		Long: `Group transactions into per-invoice baskets and run FP-Growth over them.

Rules are recomputed in memory on every run and printed; nothing is written
back to the database.`,
		RunE: runMine,
	}

	cmd.Flags().Float64("min-support", 0.02, "Minimum itemset support as a fraction of baskets")
	cmd.Flags().Float64("min-confidence", 0.3, "Minimum rule confidence")
	cmd.Flags().IntP("top", "n", 20, "Number of rules to print")

	_ = viper.BindPFlag("mine.min_support", cmd.Flags().Lookup("min-support"))
	_ = viper.BindPFlag("mine.min_confidence", cmd.Flags().Lookup("min-confidence"))
	_ = viper.BindPFlag("mine.top", cmd.Flags().Lookup("top"))

	return cmd
}

func mineConfig() mine.Config {
	return mine.Config{
		MinSupport:    viper.GetFloat64("mine.min_support"),
		MinConfidence: viper.GetFloat64("mine.min_confidence"),
	}
}

func runMine(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	transactions, err := store.Transactions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}
	if len(transactions) == 0 {
		slog.Info(cli.FormatWarning("No transactions loaded; run `basket import` first"))
		return nil
	}

	cfg := mineConfig()
	slog.Info(cli.FormatTitle("Mining association rules"))
	slog.Info("thresholds", "min_support", cfg.MinSupport, "min_confidence", cfg.MinConfidence)

	baskets := basket.Build(transactions)
	rules, err := mine.Mine(baskets, cfg)
	if err != nil {
		return fmt.Errorf("mining failed: %w", err)
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Mined %d rules from %d baskets", len(rules), len(baskets))))

	if len(rules) == 0 {
		slog.Info(cli.FormatWarning("No rules met the thresholds; try lowering --min-support"))
		return nil
	}

	top := viper.GetInt("mine.top")
	if top > len(rules) {
		top = len(rules)
	}

	content := ""
	for _, rule := range rules[:top] {
		content += rule.String() + "\n"
	}
	fmt.Println(cli.RenderBox(fmt.Sprintf("Top %d rules", top), content))

	return nil
}
