package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestRecord_KeyOrderIndependent(t *testing.T) {
	a, err := Record(map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	b, err := Record(map[string]any{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if a != b {
		t.Errorf("fingerprints differ for logically identical mappings: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}

func TestRecord_ValueSensitive(t *testing.T) {
	a, err := Record(map[string]any{"accountNumber": "06527609"})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	b, err := Record(map[string]any{"accountNumber": "06527608"})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if a == b {
		t.Error("fingerprints collide for different values")
	}
}

func TestRecord_NonEncodableValue(t *testing.T) {
	if _, err := Record(map[string]any{"ch": make(chan int)}); err == nil {
		t.Error("expected encoding error for non-serializable value")
	}
}

func TestFields(t *testing.T) {
	want := sha256.Sum256([]byte("a|b|c"))
	got := Fields("a", "b", "c")

	if got != hex.EncodeToString(want[:]) {
		t.Errorf("Fields digest mismatch: got %s", got)
	}
}

func TestAccount_StableAndSensitive(t *testing.T) {
	first := Account("06527609", "85fda8720fc5ffe0b4bd39f87e06bcbb", "987106")
	second := Account("06527609", "85fda8720fc5ffe0b4bd39f87e06bcbb", "987106")

	if first != second {
		t.Errorf("identical account identity produced different fingerprints: %s vs %s", first, second)
	}

	changed := Account("06527608", "85fda8720fc5ffe0b4bd39f87e06bcbb", "987106")
	if changed == first {
		t.Error("one-digit account number change did not change the fingerprint")
	}
}

func TestAccount_EmptyFieldsAreStable(t *testing.T) {
	// Partial provider data defaults identity fields to empty strings; the
	// fingerprint must still be well-defined and repeatable.
	first := Account("", "inst", "")
	second := Account("", "inst", "")

	if first != second || len(first) != 64 {
		t.Errorf("empty-field fingerprint unstable or malformed: %s vs %s", first, second)
	}
}

func TestTransaction(t *testing.T) {
	base := Transaction("acct-uid", "12450", "2", "2026-08-14", "uber trip lagos")

	if same := Transaction("acct-uid", "12450", "2", "2026-08-14", "uber trip lagos"); same != base {
		t.Error("identical transaction identity produced different fingerprints")
	}
	if diff := Transaction("acct-uid", "12450", "2", "2026-08-15", "uber trip lagos"); diff == base {
		t.Error("booked date change did not change the fingerprint")
	}
	if diff := Transaction("other-uid", "12450", "2", "2026-08-14", "uber trip lagos"); diff == base {
		t.Error("account change did not change the fingerprint")
	}
}
