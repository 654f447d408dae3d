// Package mine derives association rules from invoice baskets using
// FP-Growth frequent-itemset mining.
package mine

import (
	"math"
	"sort"
	"strings"

	"github.com/lunaris-labs/basket/internal/basket"
	"github.com/lunaris-labs/basket/internal/common"
	"github.com/lunaris-labs/basket/internal/model"
)

// keySep joins itemset keys. Stock codes never contain control characters.
const keySep = "\x1f"

// maxRulePatternSize caps rule enumeration: subsets of a pattern are
// enumerated by bitmask, which is only sensible for small itemsets.
const maxRulePatternSize = 16

// Config holds the mining thresholds.
type Config struct {
	MinSupport    float64 // fraction of baskets an itemset must appear in
	MinConfidence float64
}

func (c Config) validate() error {
	if c.MinSupport <= 0 || c.MinSupport > 1 {
		return common.ErrInvalidSupport
	}
	if c.MinConfidence <= 0 || c.MinConfidence > 1 {
		return common.ErrInvalidConfidence
	}
	return nil
}

// fpNode is a node in an FP-tree.
type fpNode struct {
	item     string
	parent   *fpNode
	children map[string]*fpNode
	count    int
}

func newFPNode(item string, parent *fpNode) *fpNode {
	return &fpNode{
		item:     item,
		parent:   parent,
		children: make(map[string]*fpNode),
	}
}

// Mine runs FP-Growth over the baskets and derives rules meeting the
// configured thresholds. The output is fully deterministic: mining the same
// baskets twice yields the same rules in the same order.
func Mine(baskets []basket.Basket, cfg Config) ([]model.Rule, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(baskets) == 0 {
		return nil, common.ErrNoBaskets
	}

	total := len(baskets)
	minCount := int(math.Ceil(cfg.MinSupport * float64(total)))
	if minCount < 1 {
		minCount = 1
	}

	freq := basket.ItemCounts(baskets)

	root := newFPNode("", nil)
	header := make(map[string][]*fpNode)
	for _, b := range baskets {
		items := frequentItems(b.Items, freq, minCount)
		insertTree(root, items, header)
	}

	patterns := make(map[string]int)
	mineTree(header, minCount, nil, patterns)

	rules := deriveRules(patterns, total, cfg.MinConfidence)
	sortRules(rules)
	return rules, nil
}

// frequentItems filters a basket down to items meeting the support floor and
// orders them by global frequency descending, breaking ties alphabetically
// so that tree construction is deterministic.
func frequentItems(items []string, freq map[string]int, minCount int) []string {
	kept := make([]string, 0, len(items))
	for _, item := range items {
		if freq[item] >= minCount {
			kept = append(kept, item)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if freq[kept[i]] != freq[kept[j]] {
			return freq[kept[i]] > freq[kept[j]]
		}
		return kept[i] < kept[j]
	})
	return kept
}

func insertTree(root *fpNode, items []string, header map[string][]*fpNode) {
	current := root
	for _, item := range items {
		child, ok := current.children[item]
		if ok {
			child.count++
		} else {
			child = newFPNode(item, current)
			child.count = 1
			current.children[item] = child
			header[item] = append(header[item], child)
		}
		current = child
	}
}

// mineTree recursively extracts frequent patterns from an FP-tree via
// conditional pattern bases.
func mineTree(header map[string][]*fpNode, minCount int, suffix []string, patterns map[string]int) {
	for item, nodes := range header {
		support := 0
		for _, node := range nodes {
			support += node.count
		}
		if support < minCount {
			continue
		}

		pattern := append([]string{item}, suffix...)
		patterns[patternKey(pattern)] = support

		// Conditional pattern base: prefix paths weighted by node count.
		condHeader := make(map[string][]*fpNode)
		condRoot := newFPNode("", nil)
		for _, node := range nodes {
			var path []string
			for parent := node.parent; parent != nil && parent.item != ""; parent = parent.parent {
				path = append([]string{parent.item}, path...)
			}
			for i := 0; i < node.count; i++ {
				insertTree(condRoot, path, condHeader)
			}
		}

		mineTree(condHeader, minCount, pattern, patterns)
	}
}

func patternKey(items []string) string {
	sorted := make([]string, len(items))
	copy(sorted, items)
	sort.Strings(sorted)
	return strings.Join(sorted, keySep)
}

// deriveRules splits every frequent pattern of two or more items into
// antecedent/consequent pairs and keeps those meeting the confidence floor.
// Subset supports are always available thanks to downward closure.
func deriveRules(patterns map[string]int, totalBaskets int, minConfidence float64) []model.Rule {
	var rules []model.Rule
	for key, support := range patterns {
		items := strings.Split(key, keySep)
		if len(items) < 2 || len(items) > maxRulePatternSize {
			continue
		}

		// Every non-empty proper subset is a candidate antecedent.
		for mask := 1; mask < (1 << len(items)); mask++ {
			if mask == (1<<len(items))-1 {
				continue
			}

			var antecedent, consequent []string
			for i, item := range items {
				if mask&(1<<i) != 0 {
					antecedent = append(antecedent, item)
				} else {
					consequent = append(consequent, item)
				}
			}

			antSupport, ok := patterns[patternKey(antecedent)]
			if !ok || antSupport == 0 {
				continue
			}
			conSupport, ok := patterns[patternKey(consequent)]
			if !ok {
				continue
			}

			confidence := float64(support) / float64(antSupport)
			if confidence < minConfidence {
				continue
			}

			rules = append(rules, model.Rule{
				Antecedent: antecedent,
				Consequent: consequent,
				Support:    float64(support) / float64(totalBaskets),
				Confidence: confidence,
				Lift:       confidence * float64(totalBaskets) / float64(conSupport),
			})
		}
	}
	return rules
}

// sortRules orders rules by confidence, then lift, then itemset text, which
// pins down the output for idempotence.
func sortRules(rules []model.Rule) {
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Confidence != rules[j].Confidence {
			return rules[i].Confidence > rules[j].Confidence
		}
		if rules[i].Lift != rules[j].Lift {
			return rules[i].Lift > rules[j].Lift
		}
		ai := strings.Join(rules[i].Antecedent, keySep)
		aj := strings.Join(rules[j].Antecedent, keySep)
		if ai != aj {
			return ai < aj
		}
		return strings.Join(rules[i].Consequent, keySep) < strings.Join(rules[j].Consequent, keySep)
	})
}
