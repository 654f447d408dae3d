package storage_test

import (
	"context"
	"testing"

	"github.com/lunaris-labs/basket/internal/common"
	"github.com/lunaris-labs/basket/internal/model"
	"github.com/lunaris-labs/basket/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStorage_SaveAndLoad(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	db.MustSave([]model.Transaction{
		testutil.Line("536365", "85123A", "WHITE HANGING HEART T-LIGHT HOLDER", 6),
		testutil.Line("536365", "71053", "WHITE METAL LANTERN", 6),
		testutil.Line("536366", "85123A", "WHITE HANGING HEART T-LIGHT HOLDER", 3),
	})

	transactions, err := db.Storage.Transactions(ctx)
	require.NoError(t, err)
	assert.Len(t, transactions, 3)

	// Ordered by invoice then stock code.
	assert.Equal(t, "536365", transactions[0].InvoiceID)
	assert.Equal(t, "71053", transactions[0].StockCode)

	count, err := db.Storage.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSQLiteStorage_Deduplication(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	line := testutil.Line("536365", "85123A", "WHITE HANGING HEART T-LIGHT HOLDER", 6)
	db.MustSave([]model.Transaction{line})
	db.MustSave([]model.Transaction{line}) // same hash, silently ignored

	count, err := db.Storage.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLiteStorage_TopProducts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	db.MustSave([]model.Transaction{
		testutil.Line("1", "A", "PRODUCT A", 10),
		testutil.Line("2", "A", "PRODUCT A", 5),
		testutil.Line("3", "B", "PRODUCT B", 40),
		testutil.LineIn("4", "C", "PRODUCT C", 7, "France"),
	})

	ranks, err := db.Storage.TopProducts(ctx, 10, "")
	require.NoError(t, err)
	require.Len(t, ranks, 3)

	// Descending by aggregate quantity.
	assert.Equal(t, "B", ranks[0].StockCode)
	assert.EqualValues(t, 40, ranks[0].Quantity)
	assert.Equal(t, "A", ranks[1].StockCode)
	assert.EqualValues(t, 15, ranks[1].Quantity)
	for i := 1; i < len(ranks); i++ {
		assert.GreaterOrEqual(t, ranks[i-1].Quantity, ranks[i].Quantity,
			"ranking must be non-increasing")
	}

	// Country filter.
	french, err := db.Storage.TopProducts(ctx, 10, "France")
	require.NoError(t, err)
	require.Len(t, french, 1)
	assert.Equal(t, "C", french[0].StockCode)

	// Limit applies.
	limited, err := db.Storage.TopProducts(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteStorage_Products(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	db.MustSave([]model.Transaction{
		testutil.Line("1", "85123A", "WHITE HANGING HEART T-LIGHT HOLDER", 1),
		testutil.Line("2", "22423", "REGENCY CAKESTAND 3 TIER", 1),
	})

	products, err := db.Storage.Products(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "22423", products[0].StockCode, "catalog is ordered by stock code")

	p, err := db.Storage.Product(ctx, "85123a")
	require.NoError(t, err, "lookup is case-insensitive")
	assert.Equal(t, "WHITE HANGING HEART T-LIGHT HOLDER", p.Description)

	_, err = db.Storage.Product(ctx, "NOPE")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStorage_SearchProducts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	db.MustSave([]model.Transaction{
		testutil.Line("1", "85123A", "WHITE HANGING HEART T-LIGHT HOLDER", 1),
		testutil.Line("2", "71053", "WHITE METAL LANTERN", 1),
		testutil.Line("3", "22423", "REGENCY CAKESTAND 3 TIER", 1),
	})

	matches, err := db.Storage.SearchProducts(ctx, "white", 10)
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	matches, err = db.Storage.SearchProducts(ctx, "22423", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "REGENCY CAKESTAND 3 TIER", matches[0].Description)

	matches, err = db.Storage.SearchProducts(ctx, "no such thing", 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSQLiteStorage_Countries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	db.MustSave([]model.Transaction{
		testutil.LineIn("1", "A", "PRODUCT A", 1, "United Kingdom"),
		testutil.LineIn("2", "B", "PRODUCT B", 1, "France"),
		testutil.LineIn("3", "C", "PRODUCT C", 1, "France"),
	})

	countries, err := db.Storage.Countries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"France", "United Kingdom"}, countries)
}

func TestSQLiteStorage_SaveValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	err := db.Storage.SaveTransactions(ctx, nil)
	assert.Error(t, err, "empty save is rejected")

	bad := testutil.Line("1", "A", "PRODUCT A", 1)
	bad.Quantity = 0
	err = db.Storage.SaveTransactions(ctx, []model.Transaction{bad})
	assert.ErrorIs(t, err, model.ErrNonPositiveValue, "uncleaned rows never reach the database")
}

func TestSQLiteStorage_SchemaVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)

	version, err := db.Storage.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}
