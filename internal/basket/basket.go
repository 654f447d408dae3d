// Package basket groups cleaned transactions into per-invoice item sets.
package basket

import (
	"sort"

	"github.com/lunaris-labs/basket/internal/model"
)

// Basket is the set of distinct products purchased in a single invoice.
type Basket struct {
	InvoiceID string
	Items     []string // sorted, distinct stock codes
}

// Has reports whether the basket contains the given stock code.
func (b Basket) Has(stockCode string) bool {
	i := sort.SearchStrings(b.Items, stockCode)
	return i < len(b.Items) && b.Items[i] == stockCode
}

// Build groups transactions by invoice into distinct-item baskets, ordered
// by invoice id. Invoices with a single item are kept: they contribute to
// item supports even though they produce no pairwise co-occurrence.
func Build(transactions []model.Transaction) []Basket {
	byInvoice := make(map[string]map[string]bool)
	for i := range transactions {
		txn := &transactions[i]
		items, ok := byInvoice[txn.InvoiceID]
		if !ok {
			items = make(map[string]bool)
			byInvoice[txn.InvoiceID] = items
		}
		items[txn.StockCode] = true
	}

	baskets := make([]Basket, 0, len(byInvoice))
	for invoiceID, items := range byInvoice {
		codes := make([]string, 0, len(items))
		for code := range items {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		baskets = append(baskets, Basket{InvoiceID: invoiceID, Items: codes})
	}

	sort.Slice(baskets, func(i, j int) bool {
		return baskets[i].InvoiceID < baskets[j].InvoiceID
	})

	return baskets
}

// ItemCounts returns how many baskets contain each item.
func ItemCounts(baskets []Basket) map[string]int {
	counts := make(map[string]int)
	for _, b := range baskets {
		for _, item := range b.Items {
			counts[item]++
		}
	}
	return counts
}
