package model

import (
	"fmt"
	"strings"
)

// Rule is an association rule derived from frequent itemsets. Support,
// confidence and lift are recomputed from the basket set each run; rules are
// never persisted.
type Rule struct {
	Antecedent []string
	Consequent []string
	Support    float64
	Confidence float64
	Lift       float64
}

// HasAntecedent reports whether the rule's antecedent contains the given
// stock code.
func (r *Rule) HasAntecedent(stockCode string) bool {
	for _, item := range r.Antecedent {
		if item == stockCode {
			return true
		}
	}
	return false
}

// AntecedentWithin reports whether every antecedent item is present in the
// given basket.
func (r *Rule) AntecedentWithin(basket map[string]bool) bool {
	for _, item := range r.Antecedent {
		if !basket[item] {
			return false
		}
	}
	return true
}

func (r *Rule) String() string {
	return fmt.Sprintf("{%s} => {%s} (support=%.3f confidence=%.3f lift=%.2f)",
		strings.Join(r.Antecedent, ", "),
		strings.Join(r.Consequent, ", "),
		r.Support, r.Confidence, r.Lift)
}
