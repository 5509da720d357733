// Package budget recalculates per-category spending snapshots from the
// stored transactions. It is a pure reader of the ingestor's output: a
// recalculation can always be re-run and overwrites the previous snapshot
// for the same customer and period.
package budget

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/koboflow/koboflow/internal/categorize"
	"github.com/koboflow/koboflow/internal/domain"
)

const periodFormat = "2006-01"

// TransactionReader is the slice of the store the recalculation reads from.
type TransactionReader interface {
	TransactionsByDateRange(ctx context.Context, customerID string, start, end time.Time) ([]domain.Transaction, error)
}

// SnapshotStore persists and serves budget snapshots.
type SnapshotStore interface {
	UpsertBudget(ctx context.Context, b domain.Budget) error
	GetBudget(ctx context.Context, customerID, period string) (*domain.Budget, error)
}

// Service recalculates budgets.
type Service struct {
	txs         TransactionReader
	snapshots   SnapshotStore
	categorizer categorize.Categorizer
	log         zerolog.Logger
	now         func() time.Time
}

// NewService creates a budget service. categorizer may be nil, in which case
// the deterministic keyword rules are used.
func NewService(txs TransactionReader, snapshots SnapshotStore, categorizer categorize.Categorizer, log zerolog.Logger) *Service {
	if categorizer == nil {
		categorizer = categorize.NewKeyword()
	}
	return &Service{
		txs:         txs,
		snapshots:   snapshots,
		categorizer: categorizer,
		log:         log,
		now:         time.Now,
	}
}

// Recalculate re-aggregates a customer's transactions for one YYYY-MM period
// into category totals and upserts the snapshot. Outflows (negative amounts)
// are attributed to categories; inflows only contribute to TotalIn.
func (s *Service) Recalculate(ctx context.Context, customerID, period string) (*domain.Budget, error) {
	if customerID == "" {
		return nil, fmt.Errorf("budget.Recalculate: customerId required")
	}

	start, end, err := periodBounds(period)
	if err != nil {
		return nil, err
	}

	txs, err := s.txs.TransactionsByDateRange(ctx, customerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("budget.Recalculate: %w", err)
	}

	categories, err := s.categorizeAll(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("budget.Recalculate: %w", err)
	}

	totalIn := decimal.Zero
	totalOut := decimal.Zero
	spentByCategory := make(map[string]decimal.Decimal)
	countByCategory := make(map[string]int)

	for _, tx := range txs {
		amount, err := decimal.NewFromString(tx.Amount)
		if err != nil {
			// Stored amounts are produced by the normalizer; anything else is
			// corrupt data worth surfacing but not worth failing the period.
			s.log.Warn().
				Str("customer_id", customerID).
				Str("transaction_unique_id", tx.TransactionUniqueID).
				Str("amount", tx.Amount).
				Msg("Skipping transaction with unparseable stored amount")
			continue
		}

		if amount.IsNegative() {
			category := categories[tx.Narration]
			spentByCategory[category] = spentByCategory[category].Add(amount.Abs())
			countByCategory[category]++
			totalOut = totalOut.Add(amount.Abs())
		} else {
			totalIn = totalIn.Add(amount)
		}
	}

	snapshot := domain.Budget{
		CustomerID:       customerID,
		Period:           period,
		Categories:       sortedCategories(spentByCategory, countByCategory),
		TotalIn:          totalIn.StringFixed(2),
		TotalOut:         totalOut.StringFixed(2),
		TransactionCount: len(txs),
		UpdatedAt:        s.now().UTC(),
	}

	if err := s.snapshots.UpsertBudget(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("budget.Recalculate: %w", err)
	}

	s.log.Info().
		Str("customer_id", customerID).
		Str("period", period).
		Int("transactions", snapshot.TransactionCount).
		Str("total_out", snapshot.TotalOut).
		Msg("Recalculated budget")

	return &snapshot, nil
}

// Get returns the stored snapshot for (customerID, period), or nil when none
// has been calculated.
func (s *Service) Get(ctx context.Context, customerID, period string) (*domain.Budget, error) {
	if _, _, err := periodBounds(period); err != nil {
		return nil, err
	}
	return s.snapshots.GetBudget(ctx, customerID, period)
}

func (s *Service) categorizeAll(ctx context.Context, txs []domain.Transaction) (map[string]string, error) {
	seen := make(map[string]bool)
	narrations := make([]string, 0, len(txs))
	for _, tx := range txs {
		if !seen[tx.Narration] {
			seen[tx.Narration] = true
			narrations = append(narrations, tx.Narration)
		}
	}
	if len(narrations) == 0 {
		return map[string]string{}, nil
	}
	return s.categorizer.CategorizeBatch(ctx, narrations)
}

// periodBounds returns the UTC first and last day of a YYYY-MM period.
func periodBounds(period string) (start, end time.Time, err error) {
	t, parseErr := time.Parse(periodFormat, period)
	if parseErr != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("budget: invalid period %q, want YYYY-MM", period)
	}
	start = t.UTC()
	end = start.AddDate(0, 1, -1)
	return start, end, nil
}

func sortedCategories(spent map[string]decimal.Decimal, counts map[string]int) []domain.CategorySpend {
	out := make([]domain.CategorySpend, 0, len(spent))
	for category, total := range spent {
		out = append(out, domain.CategorySpend{
			Category: category,
			Spent:    total.StringFixed(2),
			Count:    counts[category],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
