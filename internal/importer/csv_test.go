package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHeader = "InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country\n"

func TestRead_CleanRows(t *testing.T) {
	input := sampleHeader +
		`536365,85123a,"  WHITE HANGING  HEART T-LIGHT HOLDER ",6,12/1/2010 8:26,2.55,17850.0,United Kingdom
536365,71053,WHITE METAL LANTERN,6,12/1/2010 8:26,3.39,17850.0,United Kingdom
`

	result, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Transactions, 2)

	txn := result.Transactions[0]
	assert.Equal(t, "536365", txn.InvoiceID)
	assert.Equal(t, "85123A", txn.StockCode, "stock codes are uppercased")
	assert.Equal(t, "WHITE HANGING HEART T-LIGHT HOLDER", txn.Description, "whitespace is collapsed")
	assert.Equal(t, "17850", txn.CustomerID, "float-export customer ids are cleaned")
	assert.Equal(t, 6, txn.Quantity)
	assert.InDelta(t, 2.55, txn.UnitPrice, 0.001)
	assert.Equal(t, time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC), txn.InvoiceDate)
	assert.NotEmpty(t, txn.Hash)

	assert.Equal(t, 2, result.Stats.Rows)
	assert.Equal(t, 2, result.Stats.Kept)
	assert.Zero(t, result.Stats.Dropped())
}

func TestRead_DropsBadRows(t *testing.T) {
	input := sampleHeader +
		`536365,85123A,GOOD ROW,6,12/1/2010 8:26,2.55,17850,United Kingdom
536366,71053,NO CUSTOMER,2,12/1/2010 8:28,3.39,,United Kingdom
C536379,22423,A RETURN,-1,12/1/2010 9:41,12.75,14527,United Kingdom
536370,22728,FREE SAMPLE,4,12/1/2010 8:45,0,12583,France
536371,21730,BAD QUANTITY,six,12/1/2010 8:45,4.25,13047,United Kingdom
536372,21731,BAD DATE,3,yesterday,4.25,13047,United Kingdom
`

	result, err := Read(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "GOOD ROW", result.Transactions[0].Description)

	assert.Equal(t, 6, result.Stats.Rows)
	assert.Equal(t, 1, result.Stats.Kept)
	assert.Equal(t, 1, result.Stats.MissingCustomer)
	assert.Equal(t, 2, result.Stats.NonPositive, "negative quantity and zero price")
	assert.Equal(t, 2, result.Stats.Malformed, "unparseable quantity and date")
	assert.Equal(t, 5, result.Stats.Dropped())

	// Every survivor satisfies the cleaning invariant.
	for _, txn := range result.Transactions {
		assert.Positive(t, txn.Quantity)
		assert.Positive(t, txn.UnitPrice)
		assert.NotEmpty(t, txn.CustomerID)
	}
}

func TestRead_HeaderVariants(t *testing.T) {
	// Header matching ignores case and a UTF-8 BOM.
	input := "\ufeffinvoiceno,STOCKCODE,Description,quantity,InvoiceDate,unitprice,customerid,country\n" +
		"536365,85123A,HOLDER,6,12/1/2010 8:26,2.55,17850,United Kingdom\n"

	result, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, result.Transactions, 1)
}

func TestRead_MissingColumn(t *testing.T) {
	input := "InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice\n" +
		"536365,85123A,HOLDER,6,12/1/2010 8:26,2.55\n"

	_, err := Read(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "customerid")
}

func TestRead_EmptyInput(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	require.Error(t, err)
}

func TestRead_DateLayouts(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"12/1/2010 8:26", time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC)},
		{"2011-03-15 14:02:00", time.Date(2011, 3, 15, 14, 2, 0, 0, time.UTC)},
		{"2011-03-15", time.Date(2011, 3, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseDate(tt.raw)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}

	_, err := parseDate("01.12.2010")
	assert.Error(t, err)
}
