package main

import (
	"fmt"
	"log/slog"

	"github.com/lunaris-labs/basket/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func popularCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "popular",
		Short: "Show the most popular products by quantity sold",
		RunE:  runPopular,
	}

	cmd.Flags().IntP("top", "n", 10, "Number of products to show")
	cmd.Flags().String("country", "", "Restrict to a single country")

	_ = viper.BindPFlag("popular.top", cmd.Flags().Lookup("top"))
	_ = viper.BindPFlag("popular.country", cmd.Flags().Lookup("country"))

	return cmd
}

func runPopular(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	top := viper.GetInt("popular.top")
	country := viper.GetString("popular.country")

	ranks, err := store.TopProducts(ctx, top, country)
	if err != nil {
		return fmt.Errorf("failed to rank products: %w", err)
	}

	title := "Most popular products"
	if country != "" {
		title += " in " + country
	}
	slog.Info(cli.FormatTitle(title))

	if len(ranks) == 0 {
		slog.Info(cli.FormatWarning("No transactions loaded; run `basket import` first"))
		return nil
	}

	content := ""
	for i, r := range ranks {
		content += fmt.Sprintf("%2d. %-10s %-40s %8d\n", i+1, r.StockCode, r.Description, r.Quantity)
	}
	fmt.Println(cli.RenderBox(title, content))

	return nil
}
