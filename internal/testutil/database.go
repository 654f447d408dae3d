// Package testutil provides shared fixtures for tests that need a populated
// store.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/lunaris-labs/basket/internal/model"
	"github.com/lunaris-labs/basket/internal/storage"
)

// TestDB wraps an in-memory store for a single test.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory database and registers cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// MustSave stores transactions or fails the test.
func (db *TestDB) MustSave(transactions []model.Transaction) {
	db.t.Helper()
	if err := db.Storage.SaveTransactions(context.Background(), transactions); err != nil {
		db.t.Fatalf("failed to save transactions: %v", err)
	}
}

// Line builds a valid cleaned transaction with sensible defaults.
func Line(invoice, stockCode, description string, quantity int) model.Transaction {
	txn := model.Transaction{
		InvoiceID:   invoice,
		StockCode:   stockCode,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   2.55,
		InvoiceDate: time.Date(2011, 12, 1, 8, 26, 0, 0, time.UTC),
		CustomerID:  "17850",
		Country:     "United Kingdom",
	}
	txn.Hash = txn.GenerateHash()
	return txn
}

// LineIn is Line with an explicit country.
func LineIn(invoice, stockCode, description string, quantity int, country string) model.Transaction {
	txn := Line(invoice, stockCode, description, quantity)
	txn.Country = country
	txn.Hash = txn.GenerateHash()
	return txn
}
