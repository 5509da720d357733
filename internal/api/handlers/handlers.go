package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/koboflow/koboflow/internal/api/middleware"
	"github.com/koboflow/koboflow/internal/domain"
	"github.com/koboflow/koboflow/internal/jobs"
)

// AccountReader is the slice of the store the account endpoints read from.
type AccountReader interface {
	ListAccounts(ctx context.Context, customerID string) ([]domain.Account, error)
}

// TransactionReader is the slice of the store the transaction endpoints read
// from.
type TransactionReader interface {
	TransactionsByDateRange(ctx context.Context, customerID string, start, end time.Time) ([]domain.Transaction, error)
}

// BudgetService exposes budget recalculation and retrieval.
type BudgetService interface {
	Recalculate(ctx context.Context, customerID, period string) (*domain.Budget, error)
	Get(ctx context.Context, customerID, period string) (*domain.Budget, error)
}

// SyncHandler accepts aggregator callback payloads and enqueues them for
// asynchronous ingestion.
type SyncHandler struct {
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(publisher jobs.Publisher, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		publisher: publisher,
		log:       log,
	}
}

// Callback handles POST /api/sync/callback
// The aggregator delivers accounts and transactions for one customer; the
// payload is queued untouched so ingestion can be retried verbatim.
func (h *SyncHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID string          `json:"customer_id"`
		Provider   string          `json:"provider"`
		Payload    json.RawMessage `json:"payload"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.CustomerID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "customer_id is required")
		return
	}
	if len(req.Payload) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "payload is required")
		return
	}

	ctx := r.Context()

	job := &jobs.SyncJob{
		CustomerID: req.CustomerID,
		Provider:   req.Provider,
		Payload:    req.Payload,
	}

	if err := h.publisher.PublishSync(ctx, job); err != nil {
		h.log.Error().Err(err).Str("customer_id", req.CustomerID).Msg("Failed to enqueue sync job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue sync job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("customer_id", req.CustomerID).Msg("Sync job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":      job.JobID,
		"customer_id": req.CustomerID,
		"status":      string(job.Status),
	})
}

// AccountsHandler handles account-related endpoints.
type AccountsHandler struct {
	store AccountReader
	log   zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(store AccountReader, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{
		store: store,
		log:   log,
	}
}

// ListAccounts handles GET /api/accounts
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID := r.URL.Query().Get("customer_id")
	if customerID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	accounts, err := h.store.ListAccounts(ctx, customerID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	store TransactionReader
	log   zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(store TransactionReader, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		store: store,
		log:   log,
	}
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	customerID := query.Get("customer_id")
	if customerID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	startDateStr := query.Get("start_date")
	endDateStr := query.Get("end_date")

	var startDate, endDate time.Time
	var err error

	if startDateStr != "" {
		startDate, err = time.Parse("2006-01-02", startDateStr)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
	} else {
		startDate = time.Now().AddDate(-1, 0, 0) // 1 year ago
	}

	if endDateStr != "" {
		endDate, err = time.Parse("2006-01-02", endDateStr)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
	} else {
		endDate = time.Now()
	}

	transactions, err := h.store.TransactionsByDateRange(ctx, customerID, startDate, endDate)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	// Return array directly for frontend compatibility
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// BudgetsHandler handles budget-related endpoints.
type BudgetsHandler struct {
	budgets BudgetService
	log     zerolog.Logger
}

// NewBudgetsHandler creates a new budgets handler.
func NewBudgetsHandler(budgets BudgetService, log zerolog.Logger) *BudgetsHandler {
	return &BudgetsHandler{
		budgets: budgets,
		log:     log,
	}
}

// GetBudget handles GET /api/budgets
func (h *BudgetsHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	customerID := query.Get("customer_id")
	if customerID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	period := query.Get("period")
	if period == "" {
		period = time.Now().UTC().Format("2006-01")
	}

	budget, err := h.budgets.Get(ctx, customerID, period)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid period, want YYYY-MM")
		return
	}
	if budget == nil {
		middleware.WriteError(w, http.StatusNotFound, "Budget not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, budget)
}

// Recalculate handles POST /api/budgets/recalculate
func (h *BudgetsHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID string `json:"customer_id"`
		Period     string `json:"period"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.CustomerID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "customer_id is required")
		return
	}
	if req.Period == "" {
		req.Period = time.Now().UTC().Format("2006-01")
	}

	ctx := r.Context()

	budget, err := h.budgets.Recalculate(ctx, req.CustomerID, req.Period)
	if err != nil {
		h.log.Error().Err(err).Str("customer_id", req.CustomerID).Str("period", req.Period).Msg("Failed to recalculate budget")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to recalculate budget")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, budget)
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		CustomerID: query.Get("customer_id"),
		Status:     jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
