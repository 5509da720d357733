// Package fingerprint derives stable identity digests for accounts and
// transactions. The digests are natural keys: re-deriving them from the same
// raw provider payload always produces the same value, which is what makes
// the store's insert-and-ignore-duplicates strategy safe.
//
// SHA-256 is used purely for a fixed-length, collision-resistant fingerprint.
// No secret key is involved; these are not MACs.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Record returns the hex digest of a mapping, with top-level keys serialized
// in lexicographic order so that insertion order does not change the result.
// Nested object key order is not normalized; callers with nested input must
// pre-flatten it. Fails only on values that cannot be JSON-encoded.
func Record(m map[string]any) (string, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return "", fmt.Errorf("fingerprint.Record: encoding key %q: %w", k, err)
		}
		vb, err := json.Marshal(m[k])
		if err != nil {
			return "", fmt.Errorf("fingerprint.Record: encoding value for %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

// Fields returns the hex digest of the parts joined by "|". A part that
// itself contains the delimiter could collide with a shifted adjacent field;
// the call sites below keep numeric fields between free-text ones, which
// makes such a collision require matching numerics as well.
func Fields(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// Account derives the stable account identity from its defining identifiers.
// Missing fields must be passed as empty strings, never omitted, so that the
// fingerprint stays stable across partial provider data.
func Account(accountNumber, financialInstitutionID, sortCode string) string {
	fp, _ := Record(map[string]any{
		"accountNumber":          accountNumber,
		"financialInstitutionId": financialInstitutionID,
		"sortCode":               sortCode,
	})
	return fp
}

// Transaction derives the sole duplicate-prevention key for a transaction.
// Providers may reuse their own ids across syncs or omit them entirely, so
// identity is the owning account plus the raw scaled amount, the raw booked
// date, and the normalized narration.
//
// CurrencyCode is deliberately not part of the key, matching how identities
// were originally assigned: two transactions identical in every field but
// currency would collide. Changing the key now would orphan stored rows and
// double-count them on the next sync.
func Transaction(accountUniqueID, unscaledValue, scale, bookedDate, narration string) string {
	return Fields(accountUniqueID, unscaledValue, scale, bookedDate, narration)
}
