package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/koboflow/koboflow/internal/domain"
)

// UpsertBudget replaces the budget snapshot for (customerId, period).
// Budgets are derived data, so last write wins.
func (s *Store) UpsertBudget(ctx context.Context, b domain.Budget) error {
	filter := bson.M{"customerId": b.CustomerID, "period": b.Period}

	_, err := s.db.Collection(budgetsCollection).
		ReplaceOne(ctx, filter, b, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("UpsertBudget: %w", err)
	}
	return nil
}

// GetBudget returns the budget snapshot for (customerId, period), or nil
// when none has been calculated yet.
func (s *Store) GetBudget(ctx context.Context, customerID, period string) (*domain.Budget, error) {
	var b domain.Budget
	err := s.db.Collection(budgetsCollection).
		FindOne(ctx, bson.M{"customerId": customerID, "period": period}).
		Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetBudget: %w", err)
	}
	return &b, nil
}
