package budget

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/koboflow/koboflow/internal/domain"
)

type fakeBudgetStore struct {
	txs       []domain.Transaction
	snapshots map[string]domain.Budget
}

func newFakeBudgetStore(txs []domain.Transaction) *fakeBudgetStore {
	return &fakeBudgetStore{txs: txs, snapshots: make(map[string]domain.Budget)}
}

func (f *fakeBudgetStore) TransactionsByDateRange(_ context.Context, customerID string, start, end time.Time) ([]domain.Transaction, error) {
	var out []domain.Transaction
	from := start.Format("2006-01-02")
	to := end.Format("2006-01-02")
	for _, tx := range f.txs {
		if tx.CustomerID == customerID && tx.BookedDate >= from && tx.BookedDate <= to {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeBudgetStore) UpsertBudget(_ context.Context, b domain.Budget) error {
	f.snapshots[b.CustomerID+"/"+b.Period] = b
	return nil
}

func (f *fakeBudgetStore) GetBudget(_ context.Context, customerID, period string) (*domain.Budget, error) {
	b, ok := f.snapshots[customerID+"/"+period]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func tx(customerID, booked, amount, narration string) domain.Transaction {
	return domain.Transaction{
		CustomerID:          customerID,
		TransactionUniqueID: booked + "/" + amount + "/" + narration,
		BookedDate:          booked,
		Amount:              amount,
		Narration:           narration,
	}
}

func TestRecalculate(t *testing.T) {
	store := newFakeBudgetStore([]domain.Transaction{
		tx("cust-1", "2026-08-01", "-124.50", "uber trip lagos"),
		tx("cust-1", "2026-08-03", "-75.50", "bolt ride"),
		tx("cust-1", "2026-08-10", "-42.00", "shoprite lekki"),
		tx("cust-1", "2026-08-25", "2500.00", "salary august"),
		tx("cust-1", "2026-09-01", "-10.00", "uber trip lagos"), // outside period
		tx("cust-2", "2026-08-05", "-99.00", "uber trip lagos"), // other customer
	})
	svc := NewService(store, store, nil, zerolog.Nop())

	b, err := svc.Recalculate(context.Background(), "cust-1", "2026-08")
	if err != nil {
		t.Fatalf("Recalculate failed: %v", err)
	}

	if b.TransactionCount != 4 {
		t.Errorf("TransactionCount = %d, want 4", b.TransactionCount)
	}
	if b.TotalIn != "2500.00" {
		t.Errorf("TotalIn = %q, want %q", b.TotalIn, "2500.00")
	}
	if b.TotalOut != "242.00" {
		t.Errorf("TotalOut = %q, want %q", b.TotalOut, "242.00")
	}

	want := map[string]struct {
		spent string
		count int
	}{
		"Transport": {"200.00", 2},
		"Groceries": {"42.00", 1},
	}
	if len(b.Categories) != len(want) {
		t.Fatalf("got %d categories, want %d: %+v", len(b.Categories), len(want), b.Categories)
	}
	for _, cs := range b.Categories {
		w, ok := want[cs.Category]
		if !ok {
			t.Errorf("unexpected category %q", cs.Category)
			continue
		}
		if cs.Spent != w.spent || cs.Count != w.count {
			t.Errorf("category %q = spent %q count %d, want spent %q count %d",
				cs.Category, cs.Spent, cs.Count, w.spent, w.count)
		}
	}

	// The snapshot must be retrievable through the service.
	got, err := svc.Get(context.Background(), "cust-1", "2026-08")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.TotalOut != "242.00" {
		t.Errorf("stored snapshot = %+v", got)
	}
}

func TestRecalculate_EmptyPeriod(t *testing.T) {
	store := newFakeBudgetStore(nil)
	svc := NewService(store, store, nil, zerolog.Nop())

	b, err := svc.Recalculate(context.Background(), "cust-1", "2026-08")
	if err != nil {
		t.Fatalf("Recalculate failed: %v", err)
	}
	if b.TransactionCount != 0 || b.TotalIn != "0.00" || b.TotalOut != "0.00" {
		t.Errorf("empty period snapshot = %+v", b)
	}
}

func TestRecalculate_InvalidPeriod(t *testing.T) {
	store := newFakeBudgetStore(nil)
	svc := NewService(store, store, nil, zerolog.Nop())

	if _, err := svc.Recalculate(context.Background(), "cust-1", "August 2026"); err == nil {
		t.Error("expected error for malformed period")
	}
	if _, err := svc.Recalculate(context.Background(), "", "2026-08"); err == nil {
		t.Error("expected error for missing customer id")
	}
}

func TestGet_NoSnapshot(t *testing.T) {
	store := newFakeBudgetStore(nil)
	svc := NewService(store, store, nil, zerolog.Nop())

	got, err := svc.Get(context.Background(), "cust-1", "2026-07")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("Get = %+v, want nil for missing snapshot", got)
	}
}

func TestPeriodBounds(t *testing.T) {
	start, end, err := periodBounds("2026-02")
	if err != nil {
		t.Fatalf("periodBounds failed: %v", err)
	}
	if start.Format("2006-01-02") != "2026-02-01" {
		t.Errorf("start = %v", start)
	}
	if end.Format("2006-01-02") != "2026-02-28" {
		t.Errorf("end = %v", end)
	}
}
