// Package service defines the interfaces between the application's layers.
package service

import (
	"context"

	"github.com/lunaris-labs/basket/internal/model"
)

// Storage persists cleaned transactions and the product catalog. Derived
// artifacts (popularity rankings, association rules) are recomputed in memory
// each run and never stored.
type Storage interface {
	// Migrate brings the schema up to the expected version.
	Migrate(ctx context.Context) error

	// SaveTransactions stores cleaned transactions, skipping duplicates by
	// line hash, and upserts the product catalog as a side effect.
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error

	// Transactions returns every stored transaction ordered by invoice.
	Transactions(ctx context.Context) ([]model.Transaction, error)

	// CountTransactions returns the number of stored transactions.
	CountTransactions(ctx context.Context) (int, error)

	// Products returns the full catalog ordered by stock code.
	Products(ctx context.Context) ([]model.Product, error)

	// Product looks up a single catalog entry.
	Product(ctx context.Context, stockCode string) (*model.Product, error)

	// SearchProducts matches products whose description or stock code
	// contains the query, case-insensitively.
	SearchProducts(ctx context.Context, query string, limit int) ([]model.Product, error)

	// TopProducts returns up to limit products ordered by total quantity
	// sold, optionally restricted to one country.
	TopProducts(ctx context.Context, limit int, country string) ([]model.ProductRank, error)

	// Countries lists the distinct countries present in the data.
	Countries(ctx context.Context) ([]string, error)

	Close() error
}
