package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/koboflow/koboflow/internal/domain"
	"github.com/koboflow/koboflow/internal/provider"
)

// fakeStore emulates the uniquely-indexed collections with unordered-insert
// semantics: duplicates are skipped, everything else lands.
type fakeStore struct {
	accounts     map[string]domain.Account
	transactions map[string]domain.Transaction
	links        map[string]string

	insertErr error
	calls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:     make(map[string]domain.Account),
		transactions: make(map[string]domain.Transaction),
		links:        make(map[string]string),
	}
}

func (f *fakeStore) InsertAccounts(_ context.Context, accounts []domain.Account) (int, int, error) {
	f.calls++
	if f.insertErr != nil {
		return 0, 0, f.insertErr
	}
	inserted, skipped := 0, 0
	for _, a := range accounts {
		key := a.CustomerID + "/" + a.UniqueID
		if _, ok := f.accounts[key]; ok {
			skipped++
			continue
		}
		f.accounts[key] = a
		f.links[a.ID] = a.UniqueID
		inserted++
	}
	return inserted, skipped, nil
}

func (f *fakeStore) AccountLinks(_ context.Context, _ string) (map[string]string, error) {
	f.calls++
	return f.links, nil
}

func (f *fakeStore) InsertTransactions(_ context.Context, txs []domain.Transaction) (int, int, error) {
	f.calls++
	if f.insertErr != nil {
		return 0, 0, f.insertErr
	}
	inserted, skipped := 0, 0
	for _, t := range txs {
		key := t.CustomerID + "/" + t.TransactionUniqueID
		if _, ok := f.transactions[key]; ok {
			skipped++
			continue
		}
		f.transactions[key] = t
		inserted++
	}
	return inserted, skipped, nil
}

func newTestIngestor(f *fakeStore) *Ingestor {
	return New(f, f, zerolog.Nop())
}

func rawAccount(id, accountNumber string) provider.Account {
	a := provider.Account{
		ID:                     id,
		Name:                   "Checking",
		Type:                   "CHECKING",
		FinancialInstitutionID: "inst-1",
	}
	a.Identifiers = json.RawMessage(`{"sortCode": {"code": "987106", "accountNumber": "` + accountNumber + `"}}`)
	a.Balances.Booked.Amount.Value.UnscaledValue = "100000"
	a.Balances.Booked.Amount.Value.Scale = "2"
	a.Balances.Booked.Amount.CurrencyCode = "NGN"
	return a
}

func rawTransaction(id, accountID, unscaled, booked, desc string) provider.Transaction {
	t := provider.Transaction{ID: id, AccountID: accountID, Status: "BOOKED"}
	t.Amount.Value.UnscaledValue = provider.FlexString(unscaled)
	t.Amount.Value.Scale = "2"
	t.Amount.CurrencyCode = "NGN"
	t.Descriptions.Display = desc
	t.Dates.Booked = booked
	return t
}

func TestIngestAccounts_Idempotent(t *testing.T) {
	f := newFakeStore()
	ing := newTestIngestor(f)
	batch := []provider.Account{rawAccount("acc-1", "06527609"), rawAccount("acc-2", "06527610")}

	first, err := ing.IngestAccounts(context.Background(), batch, "cust-1")
	if err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	if first.Inserted != 2 || first.Skipped != 0 {
		t.Errorf("first ingest = %+v, want 2 inserted", first)
	}

	second, err := ing.IngestAccounts(context.Background(), batch, "cust-1")
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}
	if second.Inserted != 0 || second.Skipped != 2 {
		t.Errorf("second ingest = %+v, want 2 skipped", second)
	}
	if len(f.accounts) != 2 {
		t.Errorf("store holds %d accounts, want 2", len(f.accounts))
	}
}

func TestIngestAccounts_EmptyBatchIsNoOp(t *testing.T) {
	f := newFakeStore()
	ing := newTestIngestor(f)

	res, err := ing.IngestAccounts(context.Background(), nil, "cust-1")
	if err != nil {
		t.Fatalf("empty batch should succeed: %v", err)
	}
	if res != (Result{}) {
		t.Errorf("empty batch result = %+v, want zero", res)
	}
	if f.calls != 0 {
		t.Errorf("store touched %d times for empty batch, want 0", f.calls)
	}
}

func TestIngestAccounts_MissingCustomerIDFailsFast(t *testing.T) {
	f := newFakeStore()
	ing := newTestIngestor(f)

	_, err := ing.IngestAccounts(context.Background(), []provider.Account{rawAccount("acc-1", "1")}, "")
	if !IsValidationError(err) {
		t.Fatalf("expected validation error, got: %v", err)
	}
	if f.calls != 0 {
		t.Errorf("store touched %d times before validation, want 0", f.calls)
	}
}

func TestIngestAccounts_InvalidRecordCounted(t *testing.T) {
	f := newFakeStore()
	ing := newTestIngestor(f)
	batch := []provider.Account{rawAccount("acc-1", "1"), {}} // second has no provider id

	res, err := ing.IngestAccounts(context.Background(), batch, "cust-1")
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if res.Inserted != 1 || res.Invalid != 1 {
		t.Errorf("result = %+v, want 1 inserted, 1 invalid", res)
	}
}

func TestIngestTransactions_Idempotent(t *testing.T) {
	f := newFakeStore()
	ing := newTestIngestor(f)

	if _, err := ing.IngestAccounts(context.Background(), []provider.Account{rawAccount("acc-1", "06527609")}, "cust-1"); err != nil {
		t.Fatalf("seeding account failed: %v", err)
	}

	batch := []provider.Transaction{
		rawTransaction("txn-1", "acc-1", "-12450", "2026-08-14", "Uber Trip"),
		rawTransaction("txn-2", "acc-1", "-500", "2026-08-15", "Coffee"),
		rawTransaction("txn-3", "acc-1", "250000", "2026-08-25", "Salary"),
	}

	first, err := ing.IngestTransactions(context.Background(), batch, "cust-1")
	if err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	if first.Inserted != 3 {
		t.Errorf("first ingest = %+v, want 3 inserted", first)
	}

	second, err := ing.IngestTransactions(context.Background(), batch, "cust-1")
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}
	if second.Inserted != 0 || second.Skipped != 3 {
		t.Errorf("second ingest = %+v, want 3 skipped", second)
	}
	if len(f.transactions) != 3 {
		t.Errorf("store holds %d transactions, want 3", len(f.transactions))
	}
}

func TestIngestTransactions_PartialDuplicateBatch(t *testing.T) {
	f := newFakeStore()
	ing := newTestIngestor(f)

	seed := []provider.Transaction{rawTransaction("txn-2", "acc-1", "-500", "2026-08-15", "Coffee")}
	if _, err := ing.IngestTransactions(context.Background(), seed, "cust-1"); err != nil {
		t.Fatalf("seeding failed: %v", err)
	}

	batch := []provider.Transaction{
		rawTransaction("txn-1", "acc-1", "-12450", "2026-08-14", "Uber Trip"),
		rawTransaction("txn-2", "acc-1", "-500", "2026-08-15", "Coffee"), // already stored
		rawTransaction("txn-3", "acc-1", "250000", "2026-08-25", "Salary"),
	}

	res, err := ing.IngestTransactions(context.Background(), batch, "cust-1")
	if err != nil {
		t.Fatalf("partial-duplicate batch must not error: %v", err)
	}
	if res.Inserted != 2 || res.Skipped != 1 {
		t.Errorf("result = %+v, want 2 inserted, 1 skipped", res)
	}
}

func TestIngestTransactions_OrphanStored(t *testing.T) {
	f := newFakeStore()
	ing := newTestIngestor(f)

	batch := []provider.Transaction{rawTransaction("txn-1", "acc-unknown", "-100", "2026-08-14", "Mystery")}

	res, err := ing.IngestTransactions(context.Background(), batch, "cust-1")
	if err != nil {
		t.Fatalf("orphan transaction must be stored, got: %v", err)
	}
	if res.Inserted != 1 {
		t.Errorf("result = %+v, want 1 inserted", res)
	}
	for _, tx := range f.transactions {
		if tx.AccountUniqueID != "" {
			t.Errorf("orphan AccountUniqueID = %q, want empty", tx.AccountUniqueID)
		}
	}
}

func TestIngestTransactions_StoreErrorPropagates(t *testing.T) {
	f := newFakeStore()
	f.insertErr = errors.New("connection reset")
	ing := newTestIngestor(f)

	batch := []provider.Transaction{rawTransaction("txn-1", "acc-1", "-100", "2026-08-14", "Coffee")}

	if _, err := ing.IngestTransactions(context.Background(), batch, "cust-1"); err == nil {
		t.Fatal("store failure must propagate")
	}
}

func TestIngestPayload_OrdersAccountsBeforeTransactions(t *testing.T) {
	f := newFakeStore()
	ing := newTestIngestor(f)

	payload := provider.Payload{
		Accounts:     []provider.Account{rawAccount("acc-1", "06527609")},
		Transactions: []provider.Transaction{rawTransaction("txn-1", "acc-1", "-12450", "2026-08-14", "Uber Trip")},
	}

	sr, err := ing.IngestPayload(context.Background(), payload, "cust-1")
	if err != nil {
		t.Fatalf("IngestPayload failed: %v", err)
	}
	if sr.Accounts.Inserted != 1 || sr.Transactions.Inserted != 1 {
		t.Errorf("sync result = %+v, want 1 account and 1 transaction inserted", sr)
	}

	// Linkage must have resolved through the just-inserted account.
	for _, tx := range f.transactions {
		if tx.AccountUniqueID == "" {
			t.Error("transaction not linked to the account ingested in the same payload")
		}
	}
}

func TestIngestPayload_EmptyPayload(t *testing.T) {
	f := newFakeStore()
	ing := newTestIngestor(f)

	sr, err := ing.IngestPayload(context.Background(), provider.Payload{}, "cust-1")
	if err != nil {
		t.Fatalf("empty payload should succeed: %v", err)
	}
	if sr != (SyncResult{}) {
		t.Errorf("empty payload result = %+v, want zero", sr)
	}
	if f.calls != 0 {
		t.Errorf("store touched %d times for empty payload, want 0", f.calls)
	}
}
