package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/spendsmart/internal/model"
	"github.com/dvloznov/spendsmart/internal/store"
)

// TransactionSource fetches transaction facts from the bank feed.
// A fetch failure is the only fatal error in a pipeline run.
type TransactionSource interface {
	FetchTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]model.Transaction, error)
}

// Categorizer assigns a spending category to one transaction. It never
// fails: any classifier error degrades to the fallback result.
type Categorizer interface {
	Categorize(ctx context.Context, tx model.Transaction) model.CategoryResult
}

// TransactionStore is the persistence surface the pipeline needs.
type TransactionStore interface {
	ListTransactionIDs(ctx context.Context) ([]string, error)
	Insert(ctx context.Context, tx model.Transaction) error
	ListUnsynced(ctx context.Context) ([]model.Transaction, error)
	MarkSynced(ctx context.Context, transactionIDs []string) error
}

// RunRecorder tracks one bookkeeping row per pipeline run.
type RunRecorder interface {
	StartRun(ctx context.Context) (string, error)
	FinishRun(ctx context.Context, runID string, counts store.RunCounts) error
	FailRun(ctx context.Context, runID string, runErr error)
}

// SheetMirror pushes a snapshot of transactions to the external sheet.
type SheetMirror interface {
	SyncSnapshot(ctx context.Context, txs []model.Transaction) error
}
