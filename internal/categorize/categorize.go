// Package categorize assigns spending categories to transaction narrations
// for budget tracking. The keyword categorizer is the deterministic default;
// a Gemini-backed implementation can take over for narrations the rules
// don't cover.
package categorize

import (
	"context"
	"strings"
)

// Uncategorized is the fallback category for narrations nothing matches.
const Uncategorized = "Uncategorized"

// Categorizer assigns a category to each narration in a batch. The returned
// map is keyed by narration; every requested narration is present, with
// Uncategorized as the floor.
type Categorizer interface {
	CategorizeBatch(ctx context.Context, narrations []string) (map[string]string, error)
}

// defaultRules maps categories to lower-case keywords matched against
// normalized narrations. Order within a category is irrelevant; the first
// category (in taxonomy order) with a matching keyword wins.
var defaultRules = []struct {
	category string
	keywords []string
}{
	{"Transport", []string{"uber", "bolt", "taxi", "bus", "fuel", "petrol", "brt"}},
	{"Groceries", []string{"supermarket", "grocery", "market", "shoprite", "spar"}},
	{"Eating Out", []string{"restaurant", "cafe", "coffee", "pizza", "kfc", "chicken republic"}},
	{"Utilities", []string{"electricity", "water", "internet", "airtime", "data", "dstv", "phcn"}},
	{"Housing", []string{"rent", "landlord", "mortgage"}},
	{"Subscriptions", []string{"netflix", "spotify", "apple.com", "youtube premium", "subscription"}},
	{"Entertainment", []string{"cinema", "bet", "game", "concert"}},
	{"Health", []string{"pharmacy", "hospital", "clinic", "gym"}},
	{"Income", []string{"salary", "payroll", "wages"}},
	{"Transfers", []string{"transfer", "trf", "nip"}},
}

// Taxonomy returns the known category names, in matching order, without
// Uncategorized.
func Taxonomy() []string {
	out := make([]string, len(defaultRules))
	for i, r := range defaultRules {
		out[i] = r.category
	}
	return out
}

// Keyword is the deterministic rule-based categorizer.
type Keyword struct{}

// NewKeyword creates a keyword categorizer over the default rules.
func NewKeyword() *Keyword {
	return &Keyword{}
}

// CategorizeBatch implements Categorizer. It never fails.
func (k *Keyword) CategorizeBatch(_ context.Context, narrations []string) (map[string]string, error) {
	out := make(map[string]string, len(narrations))
	for _, n := range narrations {
		out[n] = k.categorize(n)
	}
	return out, nil
}

func (k *Keyword) categorize(narration string) string {
	n := strings.ToLower(narration)
	for _, rule := range defaultRules {
		for _, kw := range rule.keywords {
			if strings.Contains(n, kw) {
				return rule.category
			}
		}
	}
	return Uncategorized
}

// validCategory reports whether name is in the taxonomy (or Uncategorized),
// case-insensitively, returning the canonical spelling.
func validCategory(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	if strings.EqualFold(trimmed, Uncategorized) {
		return Uncategorized, true
	}
	for _, r := range defaultRules {
		if strings.EqualFold(trimmed, r.category) {
			return r.category, true
		}
	}
	return "", false
}
