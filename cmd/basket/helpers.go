package main

import (
	"context"
	"fmt"
	"time"

	"github.com/lunaris-labs/basket/internal/basket"
	"github.com/lunaris-labs/basket/internal/common"
	"github.com/lunaris-labs/basket/internal/config"
	"github.com/lunaris-labs/basket/internal/mine"
	"github.com/lunaris-labs/basket/internal/model"
	"github.com/lunaris-labs/basket/internal/recommend"
	"github.com/lunaris-labs/basket/internal/storage"
)

// popularityLimit bounds the popularity lists kept in memory for the
// recommender snapshot.
const popularityLimit = 100

func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// snapshot is the in-memory recommendation state rebuilt on every run.
// Nothing in it is ever written back to the database.
type snapshot struct {
	Recommender *recommend.Recommender
	Rules       []model.Rule
	TopProducts []model.ProductRank
	Products    []model.Product
	Countries   []string
	Baskets     int
}

// buildSnapshot loads transactions and recomputes popularity and rules.
func buildSnapshot(ctx context.Context, store *storage.SQLiteStorage, cfg mine.Config) (*snapshot, error) {
	start := time.Now()

	transactions, err := store.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	if len(transactions) == 0 {
		return nil, common.NewUserError("no transactions loaded; run `basket import` first", common.ErrNoTransactions)
	}

	products, err := store.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	countries, err := store.Countries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load countries: %w", err)
	}

	globalPop, err := store.TopProducts(ctx, popularityLimit, "")
	if err != nil {
		return nil, fmt.Errorf("failed to rank products: %w", err)
	}

	regionPop := make(map[string][]model.ProductRank, len(countries))
	for _, country := range countries {
		ranks, err := store.TopProducts(ctx, popularityLimit, country)
		if err != nil {
			return nil, fmt.Errorf("failed to rank products for %s: %w", country, err)
		}
		regionPop[country] = ranks
	}

	baskets := basket.Build(transactions)
	rules, err := mine.Mine(baskets, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to mine rules: %w", err)
	}

	common.LogInfo("recommendation snapshot ready", common.Fields{
		"transactions": len(transactions),
		"baskets":      len(baskets),
		"rules":        len(rules),
		"elapsed":      time.Since(start).Round(time.Millisecond),
	})

	return &snapshot{
		Recommender: recommend.New(rules, globalPop, regionPop, products),
		Rules:       rules,
		TopProducts: globalPop,
		Products:    products,
		Countries:   countries,
		Baskets:     len(baskets),
	}, nil
}
