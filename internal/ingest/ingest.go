// Package ingest maps raw aggregator batches into normalized records and
// writes them idempotently. Re-running a sync over the same payload inserts
// nothing new: duplicate identities are skipped at the store and reported as
// counts rather than errors.
package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/koboflow/koboflow/internal/domain"
	"github.com/koboflow/koboflow/internal/provider"
)

// AccountStore is the slice of the store the ingestor writes accounts
// through and resolves account linkage from.
type AccountStore interface {
	InsertAccounts(ctx context.Context, accounts []domain.Account) (inserted, skipped int, err error)
	AccountLinks(ctx context.Context, customerID string) (map[string]string, error)
}

// TransactionStore is the slice of the store the ingestor writes
// transactions through.
type TransactionStore interface {
	InsertTransactions(ctx context.Context, txs []domain.Transaction) (inserted, skipped int, err error)
}

// Result reports the outcome of one ingestion batch.
type Result struct {
	// Inserted is the number of new records persisted.
	Inserted int `json:"inserted"`

	// Skipped is the number of records whose identity already existed.
	Skipped int `json:"skipped"`

	// Invalid is the number of raw records that could not be mapped and were
	// dropped (logged, never inserted).
	Invalid int `json:"invalid"`
}

// SyncResult reports the outcome of a full payload ingestion.
type SyncResult struct {
	Accounts     Result `json:"accounts"`
	Transactions Result `json:"transactions"`
}

// Ingestor normalizes and persists aggregator batches.
type Ingestor struct {
	accounts     AccountStore
	transactions TransactionStore
	log          zerolog.Logger
	now          func() time.Time
}

// New creates an Ingestor writing through the given stores.
func New(accounts AccountStore, transactions TransactionStore, log zerolog.Logger) *Ingestor {
	return &Ingestor{
		accounts:     accounts,
		transactions: transactions,
		log:          log,
		now:          time.Now,
	}
}

// IngestAccounts normalizes and persists a batch of raw accounts for
// customerID. An empty batch is a no-op. Records that cannot be mapped are
// counted as invalid and dropped. A duplicate identity is skipped, not an
// error; any other store failure propagates.
func (i *Ingestor) IngestAccounts(ctx context.Context, raw []provider.Account, customerID string) (Result, error) {
	if customerID == "" {
		return Result{}, errCustomerIDRequired
	}
	if len(raw) == 0 {
		return Result{}, nil
	}

	now := i.now()
	var result Result
	accounts := make([]domain.Account, 0, len(raw))

	for _, r := range raw {
		acc, err := provider.MapAccount(r, customerID, now)
		if err != nil {
			result.Invalid++
			i.log.Warn().Err(err).Str("customer_id", customerID).Msg("Dropping unmappable account")
			continue
		}
		accounts = append(accounts, acc)
	}

	inserted, skipped, err := i.accounts.InsertAccounts(ctx, accounts)
	if err != nil {
		return Result{}, err
	}
	result.Inserted = inserted
	result.Skipped = skipped

	i.log.Info().
		Str("customer_id", customerID).
		Int("inserted", result.Inserted).
		Int("skipped", result.Skipped).
		Int("invalid", result.Invalid).
		Msg("Ingested accounts")

	return result, nil
}

// IngestTransactions normalizes and persists a batch of raw transactions for
// customerID. Account linkage is resolved from the accounts already in the
// store; a transaction referencing an unknown account is still stored with
// an empty linkage (orphan tolerance). Otherwise the same contract as
// IngestAccounts.
func (i *Ingestor) IngestTransactions(ctx context.Context, raw []provider.Transaction, customerID string) (Result, error) {
	if customerID == "" {
		return Result{}, errCustomerIDRequired
	}
	if len(raw) == 0 {
		return Result{}, nil
	}

	links, err := i.accounts.AccountLinks(ctx, customerID)
	if err != nil {
		return Result{}, err
	}

	now := i.now()
	var result Result
	txs := make([]domain.Transaction, 0, len(raw))

	for _, r := range raw {
		tx, err := provider.MapTransaction(r, customerID, links, now)
		if err != nil {
			result.Invalid++
			i.log.Warn().Err(err).Str("customer_id", customerID).Msg("Dropping unmappable transaction")
			continue
		}
		txs = append(txs, tx)
	}

	inserted, skipped, err := i.transactions.InsertTransactions(ctx, txs)
	if err != nil {
		return Result{}, err
	}
	result.Inserted = inserted
	result.Skipped = skipped

	i.log.Info().
		Str("customer_id", customerID).
		Int("inserted", result.Inserted).
		Int("skipped", result.Skipped).
		Int("invalid", result.Invalid).
		Msg("Ingested transactions")

	return result, nil
}

// IngestPayload runs the full sync order for one aggregator payload:
// accounts first, so transaction linkage can resolve against them, then
// transactions.
func (i *Ingestor) IngestPayload(ctx context.Context, p provider.Payload, customerID string) (SyncResult, error) {
	var sr SyncResult

	accounts, err := i.IngestAccounts(ctx, p.Accounts, customerID)
	if err != nil {
		return sr, err
	}
	sr.Accounts = accounts

	// An empty payload must remain a no-op end to end, including the linkage
	// lookup that IngestTransactions performs.
	if len(p.Transactions) == 0 {
		return sr, nil
	}

	txs, err := i.IngestTransactions(ctx, p.Transactions, customerID)
	if err != nil {
		return sr, err
	}
	sr.Transactions = txs

	return sr, nil
}
