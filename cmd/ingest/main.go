package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/koboflow/koboflow/internal/budget"
	"github.com/koboflow/koboflow/internal/config"
	"github.com/koboflow/koboflow/internal/ingest"
	"github.com/koboflow/koboflow/internal/logger"
	"github.com/koboflow/koboflow/internal/provider"
	"github.com/koboflow/koboflow/internal/store"
)

func main() {
	log := logger.New()

	payloadPath := flag.String("payload", "", "Path to an aggregator payload JSON file")
	customerID := flag.String("customer", "", "Customer the payload belongs to")
	flag.Parse()

	if *payloadPath == "" || *customerID == "" {
		log.Fatal().Msg("Error: --payload and --customer are required")
	}

	data, err := os.ReadFile(*payloadPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *payloadPath).Msg("Failed to read payload file")
	}

	payload, err := provider.DecodePayload(data)
	if err != nil {
		log.Fatal().Err(err).Msg("Payload is not decodable")
	}

	cfg := config.Load()

	// Bounded context so the CLI doesn't hang on a dead database.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	db, err := store.Connect(ctx, store.Config{
		URI:         cfg.MongoURI,
		Database:    cfg.MongoDatabase,
		MaxPoolSize: cfg.MongoMaxPoolSize,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer db.Close(context.Background())

	if err := db.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure indexes")
	}

	ingestor := ingest.New(db, db, log)

	log.Info().
		Str("customer_id", *customerID).
		Int("accounts", len(payload.Accounts)).
		Int("transactions", len(payload.Transactions)).
		Msg("Starting ingestion")

	result, err := ingestor.IngestPayload(ctx, payload, *customerID)
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	budgets := budget.NewService(db, db, nil, log)
	for _, period := range provider.Periods(payload) {
		if _, err := budgets.Recalculate(ctx, *customerID, period); err != nil {
			log.Fatal().Err(err).Str("period", period).Msg("Budget recalculation failed")
		}
	}

	fmt.Printf("Accounts:     %d inserted, %d skipped, %d invalid\n",
		result.Accounts.Inserted, result.Accounts.Skipped, result.Accounts.Invalid)
	fmt.Printf("Transactions: %d inserted, %d skipped, %d invalid\n",
		result.Transactions.Inserted, result.Transactions.Skipped, result.Transactions.Invalid)
}
