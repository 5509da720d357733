package store

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func dupError(index int) mongo.BulkWriteError {
	return mongo.BulkWriteError{
		WriteError: mongo.WriteError{
			Index:   index,
			Code:    codeDuplicateKey,
			Message: "E11000 duplicate key error collection: koboflow.transactions",
		},
	}
}

func TestSplitBulkError_NoError(t *testing.T) {
	inserted, skipped, err := splitBulkError(nil, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted != 3 || skipped != 0 {
		t.Errorf("got inserted=%d skipped=%d, want 3 and 0", inserted, skipped)
	}
}

func TestSplitBulkError_AllDuplicates(t *testing.T) {
	bwe := mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{dupError(1)}}

	inserted, skipped, err := splitBulkError(bwe, 3)
	if err != nil {
		t.Fatalf("duplicate-only batch should not error, got: %v", err)
	}
	if inserted != 2 || skipped != 1 {
		t.Errorf("got inserted=%d skipped=%d, want 2 and 1", inserted, skipped)
	}
}

func TestSplitBulkError_NonDuplicateWriteError(t *testing.T) {
	bwe := mongo.BulkWriteException{
		WriteErrors: []mongo.BulkWriteError{
			dupError(0),
			{WriteError: mongo.WriteError{Index: 1, Code: 121, Message: "Document failed validation"}},
		},
	}

	if _, _, err := splitBulkError(bwe, 3); err == nil {
		t.Fatal("schema violation must propagate, got nil error")
	}
}

func TestSplitBulkError_WriteConcernError(t *testing.T) {
	bwe := mongo.BulkWriteException{
		WriteErrors:       []mongo.BulkWriteError{dupError(0)},
		WriteConcernError: &mongo.WriteConcernError{Code: 64, Message: "waiting for replication timed out"},
	}

	if _, _, err := splitBulkError(bwe, 2); err == nil {
		t.Fatal("write concern failure must propagate, got nil error")
	}
}

func TestSplitBulkError_UnrelatedError(t *testing.T) {
	cause := errors.New("connection reset")

	_, _, err := splitBulkError(cause, 2)
	if !errors.Is(err, cause) {
		t.Fatalf("unrelated error must propagate unchanged, got: %v", err)
	}
}

func TestIsDuplicateWriteError_MessageFallback(t *testing.T) {
	we := mongo.BulkWriteError{
		WriteError: mongo.WriteError{Code: 16460, Message: "insertDocument :: caused by :: E11000 duplicate key"},
	}
	if !isDuplicateWriteError(we) {
		t.Error("E11000 message should classify as duplicate")
	}
	if isDuplicateWriteError(mongo.BulkWriteError{WriteError: mongo.WriteError{Code: 121}}) {
		t.Error("validation error misclassified as duplicate")
	}
}
