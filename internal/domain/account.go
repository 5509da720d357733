package domain

import "time"

// Account is one linked bank account as persisted in the accounts collection.
// (CustomerID, UniqueID) is unique; a re-sync that inserts the same pair is a
// no-op at the store, not an error.
type Account struct {
	// ID is the provider-assigned account id.
	ID string `bson:"id" json:"id"`

	// UniqueID is the derived identity fingerprint of
	// (accountNumber, financialInstitutionId, sortCode).
	UniqueID string `bson:"uniqueId" json:"uniqueId"`

	CustomerID string `bson:"customerId" json:"customerId"`

	Name string `bson:"name" json:"name"`
	Type string `bson:"type" json:"type"`

	BookedBalance    Balance `bson:"bookedBalance" json:"bookedBalance"`
	AvailableBalance Balance `bson:"availableBalance" json:"availableBalance"`

	// Identifiers is the provider's nested identifier structure, stored
	// verbatim (IBAN, sort code, institution references).
	Identifiers map[string]any `bson:"identifiers,omitempty" json:"identifiers,omitempty"`

	// LastRefreshed is normalized to UTC.
	LastRefreshed time.Time `bson:"lastRefreshed" json:"lastRefreshed"`

	FinancialInstitutionID string `bson:"financialInstitutionId" json:"financialInstitutionId"`
	CustomerSegment        string `bson:"customerSegment" json:"customerSegment"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Balance is a normalized account balance: the two-fraction-digit display
// amount plus the raw scaled value it was derived from.
type Balance struct {
	Amount        string `bson:"amount" json:"amount"`
	UnscaledValue string `bson:"unscaledValue" json:"unscaledValue"`
	Scale         string `bson:"scale" json:"scale"`
	CurrencyCode  string `bson:"currencyCode" json:"currencyCode"`
}
