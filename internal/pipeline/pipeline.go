// Package pipeline orchestrates one ingestion run: fetch transactions
// from the bank feed, filter out already-stored ones, categorize the new
// ones, persist them, and mirror unsynced rows to the sheet.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/spendsmart/internal/logger"
	"github.com/dvloznov/spendsmart/internal/model"
	"github.com/dvloznov/spendsmart/internal/store"
)

// DefaultDays is the trailing fetch window when none is given.
const DefaultDays = 30

// Options control a single pipeline run.
type Options struct {
	// Days is the trailing window to fetch, in calendar days.
	Days int
	// Sync controls whether unsynced rows are mirrored to the sheet.
	Sync bool
}

// DefaultOptions returns the standard run options.
func DefaultOptions() Options {
	return Options{Days: DefaultDays, Sync: true}
}

// Stats summarize one pipeline run.
type Stats struct {
	TotalFetched      int
	NewTransactions   int
	Categorized       int
	Stored            int
	AverageConfidence float64
	CategoriesUsed    int
	SyncedToSheets    int
}

// Service runs the ingestion pipeline. Runs on one Service are
// serialized: nothing in the store or the sheet protocol tolerates two
// interleaved runs.
type Service struct {
	feed        TransactionSource
	categorizer Categorizer
	store       TransactionStore
	runs        RunRecorder
	mirror      SheetMirror

	mu sync.Mutex
}

// New creates a pipeline service. mirror may be nil when no sheet sink is
// configured; sync is then skipped regardless of Options.Sync.
func New(feed TransactionSource, categorizer Categorizer, txStore TransactionStore, runs RunRecorder, mirror SheetMirror) *Service {
	return &Service{
		feed:        feed,
		categorizer: categorizer,
		store:       txStore,
		runs:        runs,
		mirror:      mirror,
	}
}

// Run executes one full ingestion run for the given access token and
// returns its statistics. Only a feed fetch failure (or run-record
// bookkeeping at the boundaries) aborts the run; classifier, per-row
// persistence, and sync failures degrade the counts instead.
func (s *Service) Run(ctx context.Context, accessToken string, opts Options) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logger.FromContext(ctx)

	if opts.Days <= 0 {
		opts.Days = DefaultDays
	}

	runID, err := s.runs.StartRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("Run: start run record: %w", err)
	}

	log.Info().Int("days", opts.Days).Bool("sync", opts.Sync).Msg("Starting transaction processing")

	// 1. Fetch all transactions for the trailing window.
	end := time.Now()
	start := end.AddDate(0, 0, -opts.Days)

	fetched, err := s.feed.FetchTransactions(ctx, accessToken, start, end)
	if err != nil {
		s.runs.FailRun(ctx, runID, err)
		return nil, fmt.Errorf("Run: fetch transactions: %w", err)
	}

	stats := &Stats{TotalFetched: len(fetched)}

	if len(fetched) == 0 {
		log.Warn().Msg("No transactions found")
		s.finish(ctx, runID, stats)
		return stats, nil
	}

	// 2. Diff against the stored set to find new transactions.
	existingIDs, err := s.store.ListTransactionIDs(ctx)
	if err != nil {
		s.runs.FailRun(ctx, runID, err)
		return nil, fmt.Errorf("Run: list existing transactions: %w", err)
	}
	existing := make(map[string]bool, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = true
	}

	var newTxs []model.Transaction
	for _, tx := range fetched {
		if !existing[tx.TransactionID] {
			newTxs = append(newTxs, tx)
		}
	}
	stats.NewTransactions = len(newTxs)

	log.Info().
		Int("fetched", len(fetched)).
		Int("new", len(newTxs)).
		Msg("Deduplicated fetched transactions")

	if len(newTxs) == 0 {
		s.finish(ctx, runID, stats)
		return stats, nil
	}

	// 3. Categorize each new transaction sequentially. Fallback results
	// count as categorized and their 0.0 confidence is included in the
	// batch mean.
	categorized := make([]model.Transaction, 0, len(newTxs))
	categoriesUsed := make(map[string]bool)
	var confidenceSum float64

	for _, tx := range newTxs {
		res := s.categorizer.Categorize(ctx, tx)
		categorized = append(categorized, model.Categorized(tx, res))
		categoriesUsed[res.PrimaryCategory] = true
		confidenceSum += res.Confidence
	}

	stats.Categorized = len(categorized)
	stats.AverageConfidence = confidenceSum / float64(len(categorized))
	stats.CategoriesUsed = len(categoriesUsed)

	log.Info().
		Int("categorized", stats.Categorized).
		Float64("avg_confidence", stats.AverageConfidence).
		Msg("Categorized transactions")

	// 4. Persist. A per-row failure (e.g. a duplicate ID racing in) is
	// logged and skipped; the rest of the batch still commits.
	for _, tx := range categorized {
		if err := s.store.Insert(ctx, tx); err != nil {
			log.Error().
				Err(err).
				Str("transaction_id", tx.TransactionID).
				Msg("Error storing transaction, row skipped")
			continue
		}
		stats.Stored++
	}

	log.Info().Int("stored", stats.Stored).Msg("Stored transactions")

	// 5. Mirror every unsynced row to the sheet. This deliberately picks
	// up rows left unsynced by earlier failed runs, not just this run's.
	if opts.Sync && s.mirror != nil {
		synced, err := s.syncUnsynced(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Sheet sync failed, rows remain unsynced for the next run")
		} else {
			stats.SyncedToSheets = synced
		}
	}

	// 6. Record the run and report.
	s.finish(ctx, runID, stats)

	log.Info().
		Int("total_fetched", stats.TotalFetched).
		Int("new", stats.NewTransactions).
		Int("categorized", stats.Categorized).
		Int("stored", stats.Stored).
		Int("synced", stats.SyncedToSheets).
		Msg("Transaction processing completed")

	return stats, nil
}

// syncUnsynced pushes all unsynced rows as one snapshot and marks them
// synced only after the push succeeds.
func (s *Service) syncUnsynced(ctx context.Context) (int, error) {
	unsynced, err := s.store.ListUnsynced(ctx)
	if err != nil {
		return 0, fmt.Errorf("syncUnsynced: list unsynced: %w", err)
	}
	if len(unsynced) == 0 {
		return 0, nil
	}

	if err := s.mirror.SyncSnapshot(ctx, unsynced); err != nil {
		return 0, fmt.Errorf("syncUnsynced: push snapshot: %w", err)
	}

	ids := make([]string, len(unsynced))
	for i, tx := range unsynced {
		ids[i] = tx.TransactionID
	}
	if err := s.store.MarkSynced(ctx, ids); err != nil {
		// The push succeeded; the rows will be redundantly resent next
		// run. At-least-once, never lost.
		return 0, fmt.Errorf("syncUnsynced: mark synced: %w", err)
	}

	return len(unsynced), nil
}

// finish records the run outcome; bookkeeping failures are logged, not
// propagated.
func (s *Service) finish(ctx context.Context, runID string, stats *Stats) {
	err := s.runs.FinishRun(ctx, runID, store.RunCounts{
		TotalFetched:    stats.TotalFetched,
		NewTransactions: stats.NewTransactions,
		Categorized:     stats.Categorized,
		Stored:          stats.Stored,
		Synced:          stats.SyncedToSheets,
	})
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("run_id", runID).Msg("Failed to record run statistics")
	}
}
