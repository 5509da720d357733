package domain

import "time"

// Transaction is one synced bank transaction as persisted in the
// transactions collection. (CustomerID, TransactionUniqueID) is unique and is
// the sole defense against double-counting a transaction returned twice by a
// sync retry or an overlapping date-range fetch.
type Transaction struct {
	// ID is the provider-assigned transaction id. Providers may reuse it or
	// omit it, so it carries no identity weight.
	ID string `bson:"id" json:"id"`

	// TransactionUniqueID is the derived identity fingerprint of the owning
	// account's UniqueID, the raw scaled amount, the raw booked date and the
	// normalized narration.
	TransactionUniqueID string `bson:"transactionUniqueId" json:"transactionUniqueId"`

	// AccountUniqueID links to the owning account's derived identity. It may
	// be empty when the referenced account is unknown; orphans are stored
	// rather than rejected.
	AccountUniqueID string `bson:"accountUniqueId" json:"accountUniqueId"`
	AccountID       string `bson:"accountId" json:"accountId"`

	CustomerID string `bson:"customerId" json:"customerId"`

	// Amount is the normalized display string; the raw scaled value is kept
	// alongside it.
	Amount        string `bson:"amount" json:"amount"`
	UnscaledValue string `bson:"unscaledValue" json:"unscaledValue"`
	Scale         string `bson:"scale" json:"scale"`
	CurrencyCode  string `bson:"currencyCode" json:"currencyCode"`

	Description string `bson:"description" json:"description"`
	Narration   string `bson:"narration" json:"narration"`

	// BookedDate is a date, not a date-time, normalized to UTC and stored as
	// YYYY-MM-DD so lexicographic range filters are chronological.
	BookedDate string `bson:"bookedDate" json:"bookedDate"`

	Identifiers        map[string]any `bson:"identifiers,omitempty" json:"identifiers,omitempty"`
	Types              map[string]any `bson:"types,omitempty" json:"types,omitempty"`
	Status             string         `bson:"status" json:"status"`
	ProviderMutability string         `bson:"providerMutability" json:"providerMutability"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Period returns the YYYY-MM budget period the transaction falls into, or ""
// when the booked date is malformed.
func (t Transaction) Period() string {
	if len(t.BookedDate) < 7 {
		return ""
	}
	return t.BookedDate[:7]
}
