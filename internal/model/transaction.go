package model

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"
)

// Validation errors for raw transaction lines. Lines failing validation are
// dropped during import, never corrected.
var (
	ErrMissingInvoice     = errors.New("missing invoice id")
	ErrMissingStockCode   = errors.New("missing stock code")
	ErrMissingCustomer    = errors.New("missing customer id")
	ErrNonPositiveValue   = errors.New("non-positive quantity or price")
	ErrMissingInvoiceDate = errors.New("missing invoice date")
)

// Transaction represents a single line item of a retail invoice.
type Transaction struct {
	InvoiceDate time.Time
	InvoiceID   string
	StockCode   string
	Description string // Cleaned product description
	CustomerID  string
	Country     string
	Hash        string
	Quantity    int
	UnitPrice   float64
}

// GenerateHash creates a unique hash for duplicate line detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%d:%.2f:%s",
		t.InvoiceID,
		t.StockCode,
		t.Quantity,
		t.UnitPrice,
		t.InvoiceDate.Format("2006-01-02 15:04"))
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// Validate reports why a line must be discarded. A nil error means the line
// survives cleaning.
func (t *Transaction) Validate() error {
	if t.InvoiceID == "" {
		return ErrMissingInvoice
	}
	if t.StockCode == "" {
		return ErrMissingStockCode
	}
	if t.CustomerID == "" {
		return ErrMissingCustomer
	}
	if t.Quantity <= 0 || t.UnitPrice <= 0 {
		return ErrNonPositiveValue
	}
	if t.InvoiceDate.IsZero() {
		return ErrMissingInvoiceDate
	}
	return nil
}
