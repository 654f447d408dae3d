// Package rank computes product popularity rankings and the score
// normalization used to blend them with rule-based recommendations.
package rank

import (
	"math"
	"sort"

	"github.com/lunaris-labs/basket/internal/model"
)

// Ranking sources.
const (
	SourceRegion = "region"
	SourceGlobal = "global"
)

// Entry is one product in a popularity list, with a normalized score.
type Entry struct {
	StockCode   string
	Description string
	Source      string
	Quantity    int64
	Score       float64
}

// Aggregate sums quantities per product and returns the top n, descending by
// aggregate quantity with stock-code tiebreaks. n <= 0 means no limit.
func Aggregate(transactions []model.Transaction, n int) []model.ProductRank {
	totals := make(map[string]int64)
	descriptions := make(map[string]string)
	for i := range transactions {
		txn := &transactions[i]
		totals[txn.StockCode] += int64(txn.Quantity)
		if txn.Description != "" {
			descriptions[txn.StockCode] = txn.Description
		}
	}

	ranks := make([]model.ProductRank, 0, len(totals))
	for code, total := range totals {
		ranks = append(ranks, model.ProductRank{
			StockCode:   code,
			Description: descriptions[code],
			Quantity:    total,
		})
	}

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Quantity != ranks[j].Quantity {
			return ranks[i].Quantity > ranks[j].Quantity
		}
		return ranks[i].StockCode < ranks[j].StockCode
	})

	if n > 0 && len(ranks) > n {
		ranks = ranks[:n]
	}
	return ranks
}

// Entries converts a ranking into scored entries using min-max normalized
// quantities. A single-element list scores 1.0.
func Entries(ranks []model.ProductRank, source string) []Entry {
	norm := MinMax(ranks)
	entries := make([]Entry, 0, len(ranks))
	for _, r := range ranks {
		entries = append(entries, Entry{
			StockCode:   r.StockCode,
			Description: r.Description,
			Quantity:    r.Quantity,
			Score:       norm[r.StockCode],
			Source:      source,
		})
	}
	return entries
}

// MinMax normalizes quantities into [0, 1]. When all quantities are equal,
// everything maps to 1.0.
func MinMax(ranks []model.ProductRank) map[string]float64 {
	if len(ranks) == 0 {
		return map[string]float64{}
	}

	minQ, maxQ := ranks[0].Quantity, ranks[0].Quantity
	for _, r := range ranks[1:] {
		if r.Quantity < minQ {
			minQ = r.Quantity
		}
		if r.Quantity > maxQ {
			maxQ = r.Quantity
		}
	}

	norm := make(map[string]float64, len(ranks))
	if maxQ == minQ {
		for _, r := range ranks {
			norm[r.StockCode] = 1.0
		}
		return norm
	}
	for _, r := range ranks {
		norm[r.StockCode] = float64(r.Quantity-minQ) / float64(maxQ-minQ)
	}
	return norm
}

// LogMinMax applies log1p before min-max normalization, damping the long
// tail of popularity counts. When all values are equal, positive values map
// to 1.0 and zeros to 0.
func LogMinMax(counts map[string]int64) map[string]float64 {
	if len(counts) == 0 {
		return map[string]float64{}
	}

	logs := make(map[string]float64, len(counts))
	minV := math.Inf(1)
	maxV := math.Inf(-1)
	for code, v := range counts {
		y := math.Log1p(float64(v))
		logs[code] = y
		minV = math.Min(minV, y)
		maxV = math.Max(maxV, y)
	}

	norm := make(map[string]float64, len(counts))
	if maxV == minV {
		for code, v := range counts {
			if v > 0 {
				norm[code] = 1.0
			}
		}
		return norm
	}
	for code, y := range logs {
		norm[code] = (y - minV) / (maxV - minV)
	}
	return norm
}

// Interleave alternates region and global popularity picks, starting with
// region. Region entries below the score threshold are skipped, duplicates
// are dropped, and globals backfill once the region side runs dry.
func Interleave(region, global []Entry, threshold float64, topN int) []Entry {
	out := make([]Entry, 0, topN)
	seen := make(map[string]bool)
	ri, gi := 0, 0

	takeGlobal := func() bool {
		for gi < len(global) {
			e := global[gi]
			gi++
			if !seen[e.StockCode] {
				out = append(out, e)
				seen[e.StockCode] = true
				return true
			}
		}
		return false
	}

	takeRegion := func() bool {
		for ri < len(region) {
			e := region[ri]
			ri++
			if !seen[e.StockCode] && e.Score >= threshold {
				out = append(out, e)
				seen[e.StockCode] = true
				return true
			}
		}
		return false
	}

	fromRegion := true
	for len(out) < topN {
		var took bool
		if fromRegion {
			took = takeRegion()
			if !took {
				took = takeGlobal()
			}
		} else {
			took = takeGlobal()
			if !took {
				took = takeRegion()
			}
		}
		if !took {
			break
		}
		fromRegion = !fromRegion
	}

	return out
}
