package storage

import (
	"context"
	"fmt"

	"github.com/lunaris-labs/basket/internal/model"
)

// SaveTransactions saves cleaned transactions, skipping lines whose hash is
// already present, and upserts the product catalog.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txnStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			hash, invoice_id, stock_code, description, quantity,
			unit_price, invoice_date, customer_id, country
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare transaction insert: %w", err)
	}
	defer func() { _ = txnStmt.Close() }()

	productStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (stock_code, description)
		VALUES (?, ?)
		ON CONFLICT(stock_code) DO UPDATE SET
			description = excluded.description,
			last_seen = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare product upsert: %w", err)
	}
	defer func() { _ = productStmt.Close() }()

	for i := range transactions {
		txn := transactions[i]
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}

		if _, err := txnStmt.ExecContext(ctx,
			txn.Hash,
			txn.InvoiceID,
			txn.StockCode,
			txn.Description,
			txn.Quantity,
			txn.UnitPrice,
			txn.InvoiceDate,
			txn.CustomerID,
			txn.Country,
		); err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.InvoiceID, err)
		}

		if txn.Description != "" {
			if _, err := productStmt.ExecContext(ctx, txn.StockCode, txn.Description); err != nil {
				return fmt.Errorf("failed to upsert product %s: %w", txn.StockCode, err)
			}
		}
	}

	return tx.Commit()
}

// Transactions returns every stored transaction ordered by invoice then
// stock code, so downstream basket building is deterministic.
func (s *SQLiteStorage) Transactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT hash, invoice_id, stock_code, description, quantity,
		       unit_price, invoice_date, customer_id, country
		FROM transactions
		ORDER BY invoice_id, stock_code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		if err := rows.Scan(
			&txn.Hash,
			&txn.InvoiceID,
			&txn.StockCode,
			&txn.Description,
			&txn.Quantity,
			&txn.UnitPrice,
			&txn.InvoiceDate,
			&txn.CustomerID,
			&txn.Country,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, txn)
	}

	return transactions, rows.Err()
}

// CountTransactions returns the number of stored transactions.
func (s *SQLiteStorage) CountTransactions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// TopProducts returns up to limit products ordered by total quantity sold,
// descending. An empty country means all countries.
func (s *SQLiteStorage) TopProducts(ctx context.Context, limit int, country string) ([]model.ProductRank, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	query := `
		SELECT t.stock_code,
		       COALESCE(p.description, t.stock_code),
		       SUM(t.quantity) AS total
		FROM transactions t
		LEFT JOIN products p ON p.stock_code = t.stock_code
	`
	args := []any{}
	if country != "" {
		query += " WHERE t.country = ?"
		args = append(args, country)
	}
	query += `
		GROUP BY t.stock_code
		ORDER BY total DESC, t.stock_code
		LIMIT ?
	`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ranks []model.ProductRank
	for rows.Next() {
		var r model.ProductRank
		if err := rows.Scan(&r.StockCode, &r.Description, &r.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan product rank: %w", err)
		}
		ranks = append(ranks, r)
	}

	return ranks, rows.Err()
}

// Countries lists the distinct countries present in the data, alphabetically.
func (s *SQLiteStorage) Countries(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT country FROM transactions
		WHERE country != '' ORDER BY country
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query countries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var countries []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		countries = append(countries, c)
	}

	return countries, rows.Err()
}
