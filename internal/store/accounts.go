package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/koboflow/koboflow/internal/domain"
)

// InsertAccounts bulk-inserts normalized accounts with unordered semantics:
// a duplicate (customerId, uniqueId) pair is skipped without aborting the
// rest of the batch. Returns how many records were inserted and skipped; any
// non-duplicate failure propagates unchanged.
func (s *Store) InsertAccounts(ctx context.Context, accounts []domain.Account) (inserted, skipped int, err error) {
	if len(accounts) == 0 {
		return 0, 0, nil
	}

	docs := make([]interface{}, len(accounts))
	for i, a := range accounts {
		docs[i] = a
	}

	_, insertErr := s.db.Collection(accountsCollection).
		InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))

	inserted, skipped, err = splitBulkError(insertErr, len(docs))
	if err != nil {
		return 0, 0, fmt.Errorf("InsertAccounts: %w", err)
	}
	return inserted, skipped, nil
}

// ListAccounts returns all accounts for a customer, newest first.
func (s *Store) ListAccounts(ctx context.Context, customerID string) ([]domain.Account, error) {
	cur, err := s.db.Collection(accountsCollection).Find(ctx,
		bson.M{"customerId": customerID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	defer cur.Close(ctx)

	var accounts []domain.Account
	if err := cur.All(ctx, &accounts); err != nil {
		return nil, fmt.Errorf("ListAccounts: decoding: %w", err)
	}
	return accounts, nil
}

// AccountLinks returns the provider-account-id to derived-identity mapping
// for a customer, used to attach transactions to their owning accounts.
func (s *Store) AccountLinks(ctx context.Context, customerID string) (map[string]string, error) {
	cur, err := s.db.Collection(accountsCollection).Find(ctx,
		bson.M{"customerId": customerID},
		options.Find().SetProjection(bson.M{"id": 1, "uniqueId": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("AccountLinks: %w", err)
	}
	defer cur.Close(ctx)

	links := make(map[string]string)
	for cur.Next(ctx) {
		var row struct {
			ID       string `bson:"id"`
			UniqueID string `bson:"uniqueId"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("AccountLinks: decoding: %w", err)
		}
		links[row.ID] = row.UniqueID
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("AccountLinks: iterating: %w", err)
	}
	return links, nil
}
