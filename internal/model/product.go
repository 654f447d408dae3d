package model

// Product is a catalog entry mapping a stock code to its description.
type Product struct {
	StockCode   string
	Description string
}

// ProductRank is one row of a popularity ranking: a product and its aggregate
// quantity sold.
type ProductRank struct {
	StockCode   string
	Description string
	Quantity    int64
}
