package provider

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/koboflow/koboflow/internal/domain"
	"github.com/koboflow/koboflow/internal/fingerprint"
	"github.com/koboflow/koboflow/internal/money"
)

const dateFormat = "2006-01-02"

// MapAccount converts a raw aggregator account into a normalized record for
// customerID. It fails when the record is unusable (no provider id, or a
// balance that cannot be normalized); identity fields merely missing default
// to empty strings so the derived UniqueID stays stable across partial data.
func MapAccount(raw Account, customerID string, now time.Time) (domain.Account, error) {
	if raw.ID == "" {
		return domain.Account{}, fmt.Errorf("MapAccount: account has no provider id")
	}

	booked, err := mapBalance(raw.Balances.Booked)
	if err != nil {
		return domain.Account{}, fmt.Errorf("MapAccount: account %s booked balance: %w", raw.ID, err)
	}
	available, err := mapBalance(raw.Balances.Available)
	if err != nil {
		return domain.Account{}, fmt.Errorf("MapAccount: account %s available balance: %w", raw.ID, err)
	}

	accountNumber, sortCode := raw.identity()

	return domain.Account{
		ID:                     raw.ID,
		UniqueID:               fingerprint.Account(accountNumber, raw.FinancialInstitutionID, sortCode),
		CustomerID:             customerID,
		Name:                   raw.Name,
		Type:                   raw.Type,
		BookedBalance:          booked,
		AvailableBalance:       available,
		Identifiers:            rawToMap(raw.Identifiers),
		LastRefreshed:          parseRefreshed(raw.Dates.LastRefreshed),
		FinancialInstitutionID: raw.FinancialInstitutionID,
		CustomerSegment:        raw.CustomerSegment,
		CreatedAt:              now.UTC(),
	}, nil
}

// MapTransaction converts a raw aggregator transaction into a normalized
// record. links maps provider account ids to account UniqueIDs for the same
// customer; a miss leaves AccountUniqueID empty and the transaction is still
// stored (orphan tolerance, no referential integrity).
func MapTransaction(raw Transaction, customerID string, links map[string]string, now time.Time) (domain.Transaction, error) {
	if raw.ID == "" {
		return domain.Transaction{}, fmt.Errorf("MapTransaction: transaction has no provider id")
	}

	unscaled := raw.Amount.Value.UnscaledValue.String()
	scale := raw.Amount.Value.Scale.String()

	display, err := money.Normalize(unscaled, scale)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("MapTransaction: transaction %s: %w", raw.ID, err)
	}

	description := raw.Descriptions.Display
	if description == "" {
		description = raw.Descriptions.Original
	}
	narration := domain.FormatNarration(description)

	accountUID := links[raw.AccountID]

	return domain.Transaction{
		ID:                  raw.ID,
		TransactionUniqueID: fingerprint.Transaction(accountUID, unscaled, scale, raw.Dates.Booked, narration),
		AccountUniqueID:     accountUID,
		AccountID:           raw.AccountID,
		CustomerID:          customerID,
		Amount:              display,
		UnscaledValue:       unscaled,
		Scale:               scale,
		CurrencyCode:        raw.Amount.CurrencyCode,
		Description:         description,
		Narration:           narration,
		BookedDate:          normalizeBookedDate(raw.Dates.Booked),
		Identifiers:         rawToMap(raw.Identifiers),
		Types:               rawToMap(raw.Types),
		Status:              raw.Status,
		ProviderMutability:  raw.ProviderMutability,
		CreatedAt:           now.UTC(),
	}, nil
}

// Periods returns the distinct YYYY-MM periods touched by a payload's
// transactions, sorted ascending. Budget recalculation after a sync runs once
// per returned period. Transactions with unparseable booked dates are
// skipped; they cannot land in any period's date range anyway.
func Periods(p Payload) []string {
	seen := make(map[string]bool)
	var periods []string
	for _, tx := range p.Transactions {
		d := normalizeBookedDate(tx.Dates.Booked)
		if len(d) < 7 {
			continue
		}
		if _, err := time.Parse("2006-01", d[:7]); err != nil {
			continue
		}
		if !seen[d[:7]] {
			seen[d[:7]] = true
			periods = append(periods, d[:7])
		}
	}
	sort.Strings(periods)
	return periods
}

func mapBalance(raw Balance) (domain.Balance, error) {
	unscaled := raw.Amount.Value.UnscaledValue.String()
	scale := raw.Amount.Value.Scale.String()

	display, err := money.Normalize(unscaled, scale)
	if err != nil {
		return domain.Balance{}, err
	}

	return domain.Balance{
		Amount:        display,
		UnscaledValue: unscaled,
		Scale:         scale,
		CurrencyCode:  raw.Amount.CurrencyCode,
	}, nil
}

// normalizeBookedDate reduces a provider date or date-time string to a UTC
// YYYY-MM-DD date. Unparseable input is kept verbatim rather than discarded;
// the fingerprint uses the raw string either way.
func normalizeBookedDate(s string) string {
	if t, err := time.Parse(dateFormat, s); err == nil {
		return t.UTC().Format(dateFormat)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(dateFormat)
	}
	return s
}

// parseRefreshed normalizes the lastRefreshed timestamp to UTC; a missing or
// malformed value degrades to the zero time.
func parseRefreshed(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", dateFormat} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func rawToMap(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
