package ingest

import "errors"

// ValidationError marks bad caller input. It is fatal to the call and is
// raised before any store I/O, so a failed validation has no partial effect.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

var errCustomerIDRequired = &ValidationError{Reason: "customerId required"}

// IsValidationError reports whether err is caller-input validation failure
// rather than a store failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
