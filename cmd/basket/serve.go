package main

import (
	"fmt"
	"log/slog"

	"github.com/lunaris-labs/basket/internal/cli"
	"github.com/lunaris-labs/basket/internal/web"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the recommendation web form",
		Long: `Recompute popularity rankings and association rules from the imported
transactions, then serve the interactive form and JSON API. All derived
state lives in memory for the lifetime of the process.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":8080", "Listen address")
	cmd.Flags().Float64("min-support", 0.02, "Minimum itemset support as a fraction of baskets")
	cmd.Flags().Float64("min-confidence", 0.3, "Minimum rule confidence")

	_ = viper.BindPFlag("serve.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("mine.min_support", cmd.Flags().Lookup("min-support"))
	_ = viper.BindPFlag("mine.min_confidence", cmd.Flags().Lookup("min-confidence"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	slog.Info(cli.FormatTitle("Preparing recommendation state"))
	snap, err := buildSnapshot(ctx, store, mineConfig())
	if err != nil {
		return err
	}

	server, err := web.NewServer(web.Config{
		Store:       store,
		Recommender: snap.Recommender,
		Products:    snap.Products,
		Countries:   snap.Countries,
		TopProducts: snap.TopProducts,
	})
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	addr := viper.GetString("serve.addr")
	slog.Info(cli.FormatSuccess(fmt.Sprintf("Serving on %s", addr)))
	return server.Run(addr)
}
