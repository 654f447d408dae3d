package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lunaris-labs/basket/internal/common"
	"github.com/lunaris-labs/basket/internal/model"
)

// Products returns the full catalog ordered by stock code.
func (s *SQLiteStorage) Products(ctx context.Context) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT stock_code, description FROM products ORDER BY stock_code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.StockCode, &p.Description); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// Product looks up a single catalog entry by stock code.
func (s *SQLiteStorage) Product(ctx context.Context, stockCode string) (*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(stockCode, "stockCode"); err != nil {
		return nil, err
	}

	var p model.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT stock_code, description FROM products WHERE stock_code = ?
	`, strings.ToUpper(stockCode)).Scan(&p.StockCode, &p.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product %s: %w", stockCode, err)
	}

	return &p, nil
}

// SearchProducts matches products whose description or stock code contains
// the query, case-insensitively.
func (s *SQLiteStorage) SearchProducts(ctx context.Context, query string, limit int) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	pattern := "%" + strings.ToUpper(strings.TrimSpace(query)) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT stock_code, description FROM products
		WHERE UPPER(description) LIKE ? OR stock_code LIKE ?
		ORDER BY stock_code
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.StockCode, &p.Description); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}
