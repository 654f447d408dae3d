// Package importer reads raw retail transaction CSV files and produces
// cleaned transactions. Rows that fail validation are counted and dropped,
// never corrected.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lunaris-labs/basket/internal/common"
	"github.com/lunaris-labs/basket/internal/model"
	"github.com/schollz/progressbar/v3"
)

// Expected column headers. Matching is case-insensitive and ignores
// surrounding whitespace.
const (
	colInvoice     = "invoiceno"
	colStockCode   = "stockcode"
	colDescription = "description"
	colQuantity    = "quantity"
	colInvoiceDate = "invoicedate"
	colUnitPrice   = "unitprice"
	colCustomerID  = "customerid"
	colCountry     = "country"
)

// Date layouts seen in retail exports, tried in order.
var dateLayouts = []string{
	"1/2/2006 15:04",
	"01/02/2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Stats summarizes an import run.
type Stats struct {
	Rows            int // data rows read, excluding the header
	Kept            int
	MissingCustomer int
	NonPositive     int
	Malformed       int // unparseable quantity, price or date
}

// Dropped returns the total number of discarded rows.
func (s Stats) Dropped() int {
	return s.MissingCustomer + s.NonPositive + s.Malformed
}

// Result holds the cleaned transactions and the import statistics.
type Result struct {
	Transactions []model.Transaction
	Stats        Stats
}

// LoadFile reads and cleans a transaction CSV file, reporting progress on
// stderr as the file is consumed.
func LoadFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("cannot read input file %s", path), err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	bar := progressbar.DefaultBytes(info.Size(), "importing")
	defer func() { _ = bar.Finish() }()

	return Read(io.TeeReader(f, bar))
}

// Read parses and cleans transaction rows from r. It fails only on a missing
// or unusable header; individual bad rows are dropped and counted.
func Read(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, common.NewUserError("input file is empty or not a CSV", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Structurally broken line; skip it like any other bad row.
			result.Stats.Rows++
			result.Stats.Malformed++
			continue
		}

		result.Stats.Rows++
		txn, err := parseRow(record, cols)
		if err != nil {
			switch {
			case errors.Is(err, model.ErrMissingCustomer):
				result.Stats.MissingCustomer++
			case errors.Is(err, model.ErrNonPositiveValue):
				result.Stats.NonPositive++
			default:
				result.Stats.Malformed++
			}
			continue
		}

		result.Stats.Kept++
		result.Transactions = append(result.Transactions, txn)
	}

	common.LogDebug("csv cleaning complete", common.Fields{
		"rows":             result.Stats.Rows,
		"kept":             result.Stats.Kept,
		"missing_customer": result.Stats.MissingCustomer,
		"non_positive":     result.Stats.NonPositive,
		"malformed":        result.Stats.Malformed,
	})

	return result, nil
}

// columnIndex maps logical columns to positions in the CSV header.
type columnIndex map[string]int

func mapColumns(header []string) (columnIndex, error) {
	cols := make(columnIndex, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		cols[key] = i
	}

	required := []string{colInvoice, colStockCode, colQuantity, colInvoiceDate, colUnitPrice, colCustomerID}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, common.NewUserError(fmt.Sprintf("input file is missing the %q column", name), common.ErrInvalidConfig)
		}
	}
	return cols, nil
}

func parseRow(record []string, cols columnIndex) (model.Transaction, error) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	txn := model.Transaction{
		InvoiceID:   field(colInvoice),
		StockCode:   strings.ToUpper(field(colStockCode)),
		Description: cleanDescription(field(colDescription)),
		CustomerID:  cleanCustomerID(field(colCustomerID)),
		Country:     field(colCountry),
	}

	var err error
	if txn.Quantity, err = strconv.Atoi(field(colQuantity)); err != nil {
		return model.Transaction{}, fmt.Errorf("bad quantity %q: %w", field(colQuantity), err)
	}
	if txn.UnitPrice, err = strconv.ParseFloat(field(colUnitPrice), 64); err != nil {
		return model.Transaction{}, fmt.Errorf("bad unit price %q: %w", field(colUnitPrice), err)
	}
	if txn.InvoiceDate, err = parseDate(field(colInvoiceDate)); err != nil {
		return model.Transaction{}, err
	}

	if err := txn.Validate(); err != nil {
		return model.Transaction{}, err
	}

	txn.Hash = txn.GenerateHash()
	return txn, nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized invoice date %q", value)
}

// cleanDescription trims and collapses internal whitespace.
func cleanDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanCustomerID strips the trailing ".0" that float-typed exports attach
// to numeric customer ids.
func cleanCustomerID(s string) string {
	return strings.TrimSuffix(s, ".0")
}
