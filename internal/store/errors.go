package store

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// Server error codes MongoDB reports for unique-index violations.
const (
	codeDuplicateKey       = 11000
	codeDuplicateKeyLegacy = 11001
	codeDuplicateKeyUpdate = 12582
)

// isDuplicateWriteError reports whether a single write error within a bulk
// result is a unique-index violation. Only these are expected and recovered;
// everything else must propagate.
func isDuplicateWriteError(we mongo.BulkWriteError) bool {
	switch we.Code {
	case codeDuplicateKey, codeDuplicateKeyLegacy, codeDuplicateKeyUpdate:
		return true
	}
	return strings.Contains(we.Message, "E11000")
}

// splitBulkError inspects an unordered InsertMany failure. When every write
// error in the batch is a duplicate key and nothing else went wrong, it
// returns the duplicate count and a nil error; otherwise the original error
// is returned for the caller to propagate.
func splitBulkError(err error, batchSize int) (inserted, skipped int, retErr error) {
	if err == nil {
		return batchSize, 0, nil
	}

	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) {
		return 0, 0, err
	}
	if bwe.WriteConcernError != nil {
		return 0, 0, err
	}
	for _, we := range bwe.WriteErrors {
		if !isDuplicateWriteError(we) {
			return 0, 0, err
		}
	}

	skipped = len(bwe.WriteErrors)
	return batchSize - skipped, skipped, nil
}
