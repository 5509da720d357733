package domain

import "strings"

// FormatNarration folds a raw transaction description into the canonical
// narration used for fingerprinting and categorization: interior whitespace
// collapsed to single spaces, trimmed, lower-cased. Must stay deterministic;
// the transaction fingerprint depends on it.
func FormatNarration(description string) string {
	return strings.ToLower(strings.Join(strings.Fields(description), " "))
}
