// Package money converts the aggregator's scaled-value representation of a
// monetary amount into a fixed-point display string.
//
// A scaled value is an integer pair (unscaledValue, scale) where the real
// amount equals unscaledValue * 10^(-scale). Providers are inconsistent about
// the sign of scale ("2" and "-2" have both been observed for nominally the
// same magnitude), so the formula is applied literally for either sign.
package money

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value as delivered by the aggregator, kept alongside
// its normalized display form. UnscaledValue and Scale are retained raw so
// that fingerprints derived from them stay stable across re-syncs.
type Amount struct {
	UnscaledValue string `bson:"unscaledValue" json:"unscaledValue"`
	Scale         string `bson:"scale" json:"scale"`
	CurrencyCode  string `bson:"currencyCode" json:"currencyCode"`
}

// Normalize converts a scaled value into a display string with exactly two
// fraction digits, rounded half away from zero.
//
// Empty inputs normalize to "0.00"; genuinely non-numeric input is a caller
// error and is reported instead of producing a NaN-like value.
func Normalize(unscaledValue, scale string) (string, error) {
	unscaledValue = strings.TrimSpace(unscaledValue)
	scale = strings.TrimSpace(scale)

	if unscaledValue == "" || scale == "" {
		return "0.00", nil
	}

	d, err := decimal.NewFromString(unscaledValue)
	if err != nil {
		return "", fmt.Errorf("money.Normalize: unscaled value %q: %w", unscaledValue, err)
	}

	exp, err := strconv.ParseInt(scale, 10, 32)
	if err != nil {
		return "", fmt.Errorf("money.Normalize: scale %q: %w", scale, err)
	}

	// value = unscaled * 10^(-scale), for either sign of scale.
	return d.Shift(int32(-exp)).StringFixed(2), nil
}

// Normalized returns the display form of a. See Normalize.
func (a Amount) Normalized() (string, error) {
	return Normalize(a.UnscaledValue, a.Scale)
}
