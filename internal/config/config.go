// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the binaries need to start.
type Config struct {
	// Port the HTTP API listens on.
	Port string

	// MongoURI is the MongoDB connection string.
	MongoURI string

	// MongoDatabase is the database name.
	MongoDatabase string

	// MongoMaxPoolSize caps the connection pool; 0 uses the driver default.
	MongoMaxPoolSize uint64

	// QueueSize is the sync-job channel buffer.
	QueueSize int

	// Workers is the number of concurrent sync-job consumers.
	Workers int

	// GeminiModel enables model-backed categorization when non-empty.
	GeminiModel string
}

// Load reads the optional .env file and the environment. A missing .env is
// fine; production relies on real environment variables.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getEnv("MONGO_DB", "koboflow"),
		MongoMaxPoolSize: uint64(getEnvInt("MONGO_MAX_POOL_SIZE", 0)),
		QueueSize:        getEnvInt("SYNC_QUEUE_SIZE", 100),
		Workers:          getEnvInt("SYNC_WORKERS", 5),
		GeminiModel:      getEnv("GEMINI_MODEL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
