package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/koboflow/koboflow/internal/domain"
)

const dateFormat = "2006-01-02"

// InsertTransactions bulk-inserts normalized transactions with unordered
// semantics: a duplicate (customerId, transactionUniqueId) pair is skipped
// without aborting the rest of the batch. Returns inserted and skipped
// counts; any non-duplicate failure propagates unchanged.
func (s *Store) InsertTransactions(ctx context.Context, txs []domain.Transaction) (inserted, skipped int, err error) {
	if len(txs) == 0 {
		return 0, 0, nil
	}

	docs := make([]interface{}, len(txs))
	for i, t := range txs {
		docs[i] = t
	}

	_, insertErr := s.db.Collection(transactionsCollection).
		InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))

	inserted, skipped, err = splitBulkError(insertErr, len(docs))
	if err != nil {
		return 0, 0, fmt.Errorf("InsertTransactions: %w", err)
	}
	return inserted, skipped, nil
}

// TransactionsByDateRange returns a customer's transactions with booked
// dates in [start, end], ordered chronologically. Booked dates are stored as
// YYYY-MM-DD strings, so lexicographic comparison is chronological.
func (s *Store) TransactionsByDateRange(ctx context.Context, customerID string, start, end time.Time) ([]domain.Transaction, error) {
	filter := bson.M{
		"customerId": customerID,
		"bookedDate": bson.M{
			"$gte": start.UTC().Format(dateFormat),
			"$lte": end.UTC().Format(dateFormat),
		},
	}

	cur, err := s.db.Collection(transactionsCollection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "bookedDate", Value: 1}, {Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("TransactionsByDateRange: %w", err)
	}
	defer cur.Close(ctx)

	var txs []domain.Transaction
	if err := cur.All(ctx, &txs); err != nil {
		return nil, fmt.Errorf("TransactionsByDateRange: decoding: %w", err)
	}
	return txs, nil
}
