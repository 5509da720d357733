// Package provider defines the wire shapes delivered by the open-banking
// aggregators (Mono, Tink) and the fallible mapping from those shapes into
// normalized domain records.
//
// Decoding is deliberately tolerant: the aggregators drift their schemas, so
// unknown fields are ignored and scaled values arrive as strings or numbers
// interchangeably. Mapping, by contrast, is explicit about what makes a
// record unusable so that callers can count invalid records instead of
// silently defaulting them.
package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexString decodes a JSON string or number into a string. Aggregators emit
// scaled-value components both ways, sometimes within one payload.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("provider: value %s is neither string nor number", data)
	}
	*s = FlexString(n.String())
	return nil
}

// String returns the decoded value.
func (s FlexString) String() string { return string(s) }

// ScaledValue is the aggregator's integer-pair money representation.
type ScaledValue struct {
	UnscaledValue FlexString `json:"unscaledValue"`
	Scale         FlexString `json:"scale"`
}

// Amount is a scaled value plus its currency.
type Amount struct {
	Value        ScaledValue `json:"value"`
	CurrencyCode string      `json:"currencyCode"`
}

// Balance wraps an amount; the aggregator nests balances one level deeper
// than transactions.
type Balance struct {
	Amount Amount `json:"amount"`
}

// Account is a raw aggregator account object.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`

	Balances struct {
		Booked    Balance `json:"booked"`
		Available Balance `json:"available"`
	} `json:"balances"`

	// Identifiers is provider-specific and opaque: IBAN, sort code,
	// institution references. Kept raw for passthrough; identity fields are
	// extracted defensively.
	Identifiers json.RawMessage `json:"identifiers"`

	Dates struct {
		LastRefreshed string `json:"lastRefreshed"`
	} `json:"dates"`

	FinancialInstitutionID string `json:"financialInstitutionId"`
	CustomerSegment        string `json:"customerSegment"`
}

// Transaction is a raw aggregator transaction object.
type Transaction struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"`

	Amount Amount `json:"amount"`

	Descriptions struct {
		Original string `json:"original"`
		Display  string `json:"display"`
	} `json:"descriptions"`

	Dates struct {
		Booked string `json:"booked"`
	} `json:"dates"`

	Identifiers        json.RawMessage `json:"identifiers"`
	Types              json.RawMessage `json:"types"`
	Status             string          `json:"status"`
	ProviderMutability string          `json:"providerMutability"`
}

// Payload is the document the aggregator hands over after a link or refresh:
// the customer's accounts and their transactions in one batch.
type Payload struct {
	Accounts     []Account     `json:"accounts"`
	Transactions []Transaction `json:"transactions"`
}

// DecodePayload parses a raw callback body into a Payload.
func DecodePayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("provider.DecodePayload: %w", err)
	}
	return p, nil
}

// accountIdentity is the slice of Identifiers the account fingerprint is
// derived from. Everything is optional; missing fields stay empty strings.
type accountIdentity struct {
	SortCode struct {
		Code          FlexString `json:"code"`
		AccountNumber FlexString `json:"accountNumber"`
	} `json:"sortCode"`
	IBAN struct {
		IBAN string `json:"iban"`
	} `json:"iban"`
}

// identity extracts (accountNumber, sortCode) from the opaque identifier
// structure. Decode failures degrade to empty strings so the fingerprint
// stays defined for partial data.
func (a Account) identity() (accountNumber, sortCode string) {
	if len(a.Identifiers) == 0 {
		return "", ""
	}
	var id accountIdentity
	if err := json.Unmarshal(a.Identifiers, &id); err != nil {
		return "", ""
	}
	return id.SortCode.AccountNumber.String(), id.SortCode.Code.String()
}
