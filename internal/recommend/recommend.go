// Package recommend turns mined rules and popularity rankings into ranked
// "customers who bought X also bought Y" suggestions.
package recommend

import (
	"sort"

	"github.com/lunaris-labs/basket/internal/model"
	"github.com/lunaris-labs/basket/internal/rank"
)

// Suggestion sources.
const (
	SourceRules      = "rules"
	SourcePopularity = "popularity"
)

// How fast rule evidence overtakes popularity as the basket grows: with
// alphaRampC = 3, one item weighs rules at 0.25, three at 0.5, nine at 0.75.
const alphaRampC = 3.0

// regionThreshold filters weakly-popular region items out of cold-start
// interleaving.
const regionThreshold = 0.2

// Suggestion is a single recommended product.
type Suggestion struct {
	StockCode   string
	Description string
	Source      string
	Score       float64
}

// Recommender answers recommendation queries from an immutable snapshot of
// rules and popularity rankings. It is safe for concurrent readers.
type Recommender struct {
	rules        []model.Rule
	globalPop    []model.ProductRank
	regionPop    map[string][]model.ProductRank
	descriptions map[string]string
}

// New builds a Recommender. regionPop maps country names to their popularity
// rankings; globalPop covers all countries.
func New(rules []model.Rule, globalPop []model.ProductRank, regionPop map[string][]model.ProductRank, products []model.Product) *Recommender {
	descriptions := make(map[string]string, len(products))
	for _, p := range products {
		descriptions[p.StockCode] = p.Description
	}
	return &Recommender{
		rules:        rules,
		globalPop:    globalPop,
		regionPop:    regionPop,
		descriptions: descriptions,
	}
}

// Rules exposes the mined rule set, in its deterministic order.
func (r *Recommender) Rules() []model.Rule {
	return r.rules
}

// ForProduct returns up to k products from rules whose antecedent contains
// the given stock code, ordered by confidence then lift. An empty result is
// a normal outcome, not an error.
func (r *Recommender) ForProduct(stockCode string, k int) []Suggestion {
	type best struct {
		confidence float64
		lift       float64
	}
	candidates := make(map[string]best)

	for i := range r.rules {
		rule := &r.rules[i]
		if !rule.HasAntecedent(stockCode) {
			continue
		}
		for _, item := range rule.Consequent {
			if item == stockCode {
				continue
			}
			cur, ok := candidates[item]
			if !ok || rule.Confidence > cur.confidence ||
				(rule.Confidence == cur.confidence && rule.Lift > cur.lift) {
				candidates[item] = best{confidence: rule.Confidence, lift: rule.Lift}
			}
		}
	}

	suggestions := make([]Suggestion, 0, len(candidates))
	for item, b := range candidates {
		suggestions = append(suggestions, Suggestion{
			StockCode:   item,
			Description: r.descriptions[item],
			Score:       b.confidence,
			Source:      SourceRules,
		})
	}

	lifts := func(s Suggestion) float64 { return candidates[s.StockCode].lift }
	sort.Slice(suggestions, func(i, j int) bool {
		si, sj := suggestions[i], suggestions[j]
		if si.Score != sj.Score {
			return si.Score > sj.Score
		}
		if lifts(si) != lifts(sj) {
			return lifts(si) > lifts(sj)
		}
		return si.StockCode < sj.StockCode
	})

	if len(suggestions) > k {
		suggestions = suggestions[:k]
	}
	return suggestions
}

// Recommend produces up to topN suggestions for a basket. An empty basket
// falls back to cold-start popularity; otherwise rule hits are blended with
// popularity backfill, weighted by how much basket evidence exists. When a
// country is given its regional sales boost the backfill ranking.
func (r *Recommender) Recommend(basketItems []string, country string, topN int) []Suggestion {
	if topN <= 0 {
		return nil
	}

	inBasket := make(map[string]bool, len(basketItems))
	for _, item := range basketItems {
		inBasket[item] = true
	}

	if len(inBasket) == 0 {
		return r.coldStart(country, topN)
	}

	// Rule candidates: antecedent fully inside the basket, consequent
	// outside it. Confidence weighted by lift rewards rules that beat
	// independence, not just frequent pairs.
	ruleScores := make(map[string]float64)
	for i := range r.rules {
		rule := &r.rules[i]
		if !rule.AntecedentWithin(inBasket) {
			continue
		}
		for _, item := range rule.Consequent {
			if inBasket[item] {
				continue
			}
			score := rule.Confidence * rule.Lift
			if score > ruleScores[item] {
				ruleScores[item] = score
			}
		}
	}

	// Popularity backfill for products the rules didn't reach. Region
	// purchases count on top of the global totals, so a shopper's local
	// favorites outrank globally popular items with no regional sales.
	popCounts := make(map[string]int64)
	for _, p := range r.globalPop {
		if inBasket[p.StockCode] {
			continue
		}
		if _, fromRules := ruleScores[p.StockCode]; fromRules {
			continue
		}
		popCounts[p.StockCode] = p.Quantity
	}
	if country != "" {
		for _, p := range r.regionPop[country] {
			if inBasket[p.StockCode] {
				continue
			}
			if _, fromRules := ruleScores[p.StockCode]; fromRules {
				continue
			}
			popCounts[p.StockCode] += p.Quantity
		}
	}

	ruleNorm := minMaxFloat(ruleScores)
	popNorm := rank.LogMinMax(popCounts)

	alpha := float64(len(inBasket)) / (float64(len(inBasket)) + alphaRampC)

	suggestions := make([]Suggestion, 0, len(ruleNorm)+len(popNorm))
	for item, score := range ruleNorm {
		suggestions = append(suggestions, Suggestion{
			StockCode:   item,
			Description: r.descriptions[item],
			Score:       alpha * score,
			Source:      SourceRules,
		})
	}
	for item, score := range popNorm {
		suggestions = append(suggestions, Suggestion{
			StockCode:   item,
			Description: r.descriptions[item],
			Score:       (1 - alpha) * score,
			Source:      SourcePopularity,
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].StockCode < suggestions[j].StockCode
	})

	if len(suggestions) > topN {
		suggestions = suggestions[:topN]
	}
	return suggestions
}

// coldStart interleaves region and global popularity for an empty basket.
func (r *Recommender) coldStart(country string, topN int) []Suggestion {
	global := rank.Entries(r.globalPop, rank.SourceGlobal)

	var region []rank.Entry
	if country != "" {
		region = rank.Entries(r.regionPop[country], rank.SourceRegion)
	}

	entries := rank.Interleave(region, global, regionThreshold, topN)

	suggestions := make([]Suggestion, 0, len(entries))
	for _, e := range entries {
		description := e.Description
		if description == "" {
			description = r.descriptions[e.StockCode]
		}
		suggestions = append(suggestions, Suggestion{
			StockCode:   e.StockCode,
			Description: description,
			Score:       e.Score,
			Source:      e.Source,
		})
	}
	return suggestions
}

func minMaxFloat(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return map[string]float64{}
	}

	first := true
	var minV, maxV float64
	for _, v := range scores {
		if first {
			minV, maxV = v, v
			first = false
			continue
		}
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	norm := make(map[string]float64, len(scores))
	if maxV == minV {
		for k, v := range scores {
			if v > 0 {
				norm[k] = 1.0
			}
		}
		return norm
	}
	for k, v := range scores {
		norm[k] = (v - minV) / (maxV - minV)
	}
	return norm
}
