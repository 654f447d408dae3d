package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/lunaris-labs/basket/internal/cli"
	"github.com/lunaris-labs/basket/internal/recommend"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func recommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend <stock-code>...",
		Short: "Suggest products bought together with the given ones",
		Long: `Recommend products for one or more stock codes.

A single code is answered purely from association rules ordered by
confidence then lift. Multiple codes are treated as a basket and blended
with popularity backfill.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRecommend,
	}

	cmd.Flags().IntP("top", "n", 10, "Number of suggestions")
	cmd.Flags().String("country", "", "Country used for popularity backfill")
	cmd.Flags().Float64("min-support", 0.02, "Minimum itemset support as a fraction of baskets")
	cmd.Flags().Float64("min-confidence", 0.3, "Minimum rule confidence")

	_ = viper.BindPFlag("recommend.top", cmd.Flags().Lookup("top"))
	_ = viper.BindPFlag("recommend.country", cmd.Flags().Lookup("country"))
	_ = viper.BindPFlag("mine.min_support", cmd.Flags().Lookup("min-support"))
	_ = viper.BindPFlag("mine.min_confidence", cmd.Flags().Lookup("min-confidence"))

	return cmd
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	snap, err := buildSnapshot(ctx, store, mineConfig())
	if err != nil {
		return err
	}

	codes := make([]string, 0, len(args))
	for _, arg := range args {
		codes = append(codes, strings.ToUpper(strings.TrimSpace(arg)))
	}

	top := viper.GetInt("recommend.top")

	var suggestions []recommend.Suggestion
	if len(codes) == 1 {
		suggestions = snap.Recommender.ForProduct(codes[0], top)
	} else {
		suggestions = snap.Recommender.Recommend(codes, viper.GetString("recommend.country"), top)
	}

	title := "Customers also bought"
	slog.Info(cli.FormatTitle(fmt.Sprintf("%s (with %s)", title, strings.Join(codes, ", "))))

	if len(suggestions) == 0 {
		slog.Info(cli.FormatWarning("No co-purchase pattern found for this selection"))
		return nil
	}

	content := ""
	for i, s := range suggestions {
		content += fmt.Sprintf("%2d. %-10s %-40s %.3f (%s)\n", i+1, s.StockCode, s.Description, s.Score, s.Source)
	}
	fmt.Println(cli.RenderBox(title, content))

	return nil
}
