// Command migrate creates the MongoDB indexes the service relies on. It is
// idempotent: re-running against an already migrated database is a no-op.
package main

import (
	"context"
	"time"

	"github.com/koboflow/koboflow/internal/config"
	"github.com/koboflow/koboflow/internal/logger"
	"github.com/koboflow/koboflow/internal/store"
)

func main() {
	cfg := config.Load()
	log := logger.New()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

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

	log.Info().Str("database", cfg.MongoDatabase).Msg("Migration complete")
}
