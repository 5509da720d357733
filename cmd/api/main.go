package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/koboflow/koboflow/internal/api/handlers"
	"github.com/koboflow/koboflow/internal/api/middleware"
	"github.com/koboflow/koboflow/internal/budget"
	"github.com/koboflow/koboflow/internal/categorize"
	"github.com/koboflow/koboflow/internal/config"
	"github.com/koboflow/koboflow/internal/ingest"
	"github.com/koboflow/koboflow/internal/jobs"
	"github.com/koboflow/koboflow/internal/jobs/inmemory"
	"github.com/koboflow/koboflow/internal/logger"
	"github.com/koboflow/koboflow/internal/provider"
	"github.com/koboflow/koboflow/internal/store"
)

func main() {
	cfg := config.Load()
	log := logger.New()

	ctx := context.Background()

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

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.QueueSize, cfg.Workers, jobStore)

	// Categorization degrades to keyword rules unless a model is configured.
	var categorizer categorize.Categorizer
	if cfg.GeminiModel != "" {
		categorizer = categorize.NewGemini(cfg.GeminiModel)
	}

	ingestor := ingest.New(db, db, log)
	budgets := budget.NewService(db, db, categorizer, log)

	// Start worker in background to process sync jobs
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		syncJob, ok := job.(*jobs.SyncJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", syncJob.JobID).
			Str("customer_id", syncJob.CustomerID).
			Str("provider", syncJob.Provider).
			Msg("Processing sync job")

		payload, err := provider.DecodePayload(syncJob.Payload)
		if err != nil {
			log.Error().Err(err).Str("job_id", syncJob.JobID).Msg("Sync payload is not decodable")
			return err
		}

		result, err := ingestor.IngestPayload(ctx, payload, syncJob.CustomerID)
		if err != nil {
			log.Error().Err(err).Str("job_id", syncJob.JobID).Msg("Ingestion failed")
			return err
		}

		// Refresh the budget snapshot of every period the payload touched.
		for _, period := range provider.Periods(payload) {
			if _, err := budgets.Recalculate(ctx, syncJob.CustomerID, period); err != nil {
				log.Error().Err(err).
					Str("job_id", syncJob.JobID).
					Str("period", period).
					Msg("Budget recalculation failed")
				return err
			}
		}

		log.Info().
			Str("job_id", syncJob.JobID).
			Int("accounts_inserted", result.Accounts.Inserted).
			Int("accounts_skipped", result.Accounts.Skipped).
			Int("transactions_inserted", result.Transactions.Inserted).
			Int("transactions_skipped", result.Transactions.Skipped).
			Msg("Sync job completed")

		return nil
	}

	go func() {
		log.Info().Msg("Starting sync worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Sync worker stopped with error")
		}
	}()

	// Initialize handlers
	syncHandler := handlers.NewSyncHandler(jobQueue, log)
	accountsHandler := handlers.NewAccountsHandler(db, log)
	transactionsHandler := handlers.NewTransactionsHandler(db, log)
	budgetsHandler := handlers.NewBudgetsHandler(budgets, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/sync/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			syncHandler.Callback(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			accountsHandler.ListAccounts(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.ListTransactions(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/budgets", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			budgetsHandler.GetBudget(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/budgets/recalculate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			budgetsHandler.Recalculate(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
