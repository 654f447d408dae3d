package basket

import (
	"testing"

	"github.com/lunaris-labs/basket/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txn(invoiceID, stockCode string) model.Transaction {
	return model.Transaction{InvoiceID: invoiceID, StockCode: stockCode}
}

func TestBuild_GroupsByInvoice(t *testing.T) {
	transactions := []model.Transaction{
		txn("536366", "B"),
		txn("536365", "C"),
		txn("536365", "A"),
		txn("536365", "C"), // repeat purchase within one invoice
		txn("536366", "A"),
	}

	baskets := Build(transactions)
	require.Len(t, baskets, 2)

	assert.Equal(t, "536365", baskets[0].InvoiceID)
	assert.Equal(t, []string{"A", "C"}, baskets[0].Items, "items are distinct and sorted")
	assert.Equal(t, "536366", baskets[1].InvoiceID)
	assert.Equal(t, []string{"A", "B"}, baskets[1].Items)
}

func TestBuild_SingleItemInvoiceKept(t *testing.T) {
	baskets := Build([]model.Transaction{txn("1", "A")})
	require.Len(t, baskets, 1)
	assert.Equal(t, []string{"A"}, baskets[0].Items)
}

func TestBuild_Empty(t *testing.T) {
	assert.Empty(t, Build(nil))
}

func TestBasket_Has(t *testing.T) {
	b := Basket{Items: []string{"A", "B", "D"}}

	assert.True(t, b.Has("A"))
	assert.True(t, b.Has("D"))
	assert.False(t, b.Has("C"))
	assert.False(t, b.Has(""))
}

func TestItemCounts(t *testing.T) {
	baskets := Build([]model.Transaction{
		txn("1", "A"), txn("1", "B"),
		txn("2", "A"), txn("2", "B"),
		txn("3", "A"), txn("3", "C"),
	})

	counts := ItemCounts(baskets)
	assert.Equal(t, map[string]int{"A": 3, "B": 2, "C": 1}, counts)
}
