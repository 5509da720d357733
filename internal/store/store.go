// Package store persists normalized accounts, transactions and budget
// snapshots in MongoDB. Dedup is enforced by unique compound indexes and
// unordered bulk inserts that swallow only duplicate-key failures.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	accountsCollection     = "accounts"
	transactionsCollection = "transactions"
	budgetsCollection      = "budgets"
)

// Config holds the connection settings for a Store.
type Config struct {
	// URI is the MongoDB connection string.
	URI string

	// Database is the database name.
	Database string

	// MaxPoolSize caps concurrent connections; 0 uses the driver default.
	MaxPoolSize uint64

	// ConnectTimeout bounds the initial connect and ping.
	ConnectTimeout time.Duration
}

// Store is the shared persistence handle. It is constructed once at process
// start and passed by reference to every component that needs it; there is no
// lazily-initialized package-level singleton.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    zerolog.Logger
}

// Connect opens the connection pool and verifies it with a ping. It does not
// create indexes; call EnsureIndexes before the first write of a process.
func Connect(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("store.Connect: URI is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("store.Connect: database name is required")
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout)
	if cfg.MaxPoolSize > 0 {
		opts = opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("store.Connect: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("store.Connect: ping: %w", err)
	}

	log.Info().Str("database", cfg.Database).Msg("Connected to MongoDB")

	return &Store{
		client: client,
		db:     client.Database(cfg.Database),
		log:    log,
	}, nil
}

// Close releases the connection pool.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the uniqueness constraints the dedup strategy relies
// on, plus the read index for date-range queries. createIndexes is a no-op
// for an index that already exists with the same definition, so this call is
// idempotent and safe to re-issue from every process at startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	accountIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "customerId", Value: 1}, {Key: "uniqueId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("customer_unique_account"),
		},
	}
	if _, err := s.db.Collection(accountsCollection).Indexes().CreateMany(ctx, accountIndexes); err != nil {
		return fmt.Errorf("EnsureIndexes: accounts: %w", err)
	}

	transactionIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "customerId", Value: 1}, {Key: "transactionUniqueId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("customer_unique_transaction"),
		},
		{
			Keys:    bson.D{{Key: "customerId", Value: 1}, {Key: "bookedDate", Value: 1}},
			Options: options.Index().SetName("customer_booked_date"),
		},
	}
	if _, err := s.db.Collection(transactionsCollection).Indexes().CreateMany(ctx, transactionIndexes); err != nil {
		return fmt.Errorf("EnsureIndexes: transactions: %w", err)
	}

	budgetIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "customerId", Value: 1}, {Key: "period", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("customer_period"),
		},
	}
	if _, err := s.db.Collection(budgetsCollection).Indexes().CreateMany(ctx, budgetIndexes); err != nil {
		return fmt.Errorf("EnsureIndexes: budgets: %w", err)
	}

	s.log.Info().Msg("Ensured MongoDB indexes")
	return nil
}
