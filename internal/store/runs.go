package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/spendsmart/internal/logger"
)

// Run statuses for the ingestion_runs table.
const (
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

// RunCounts are the per-run statistics recorded when a run finishes.
type RunCounts struct {
	TotalFetched    int
	NewTransactions int
	Categorized     int
	Stored          int
	Synced          int
}

// RunRepository records one row per pipeline run in the ingestion_runs
// table.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the provided database
// connection.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// StartRun inserts a run row with status=RUNNING and returns its ID.
func (r *RunRepository) StartRun(ctx context.Context) (string, error) {
	runID := uuid.NewString()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ingestion_runs (run_id, started_ts, status) VALUES (?, ?, ?)`,
		runID,
		time.Now().UTC().Format(tsFormat),
		RunStatusRunning,
	)
	if err != nil {
		return "", fmt.Errorf("StartRun: insert run row: %w", err)
	}
	return runID, nil
}

// FinishRun marks a run as SUCCESS and records its statistics.
func (r *RunRepository) FinishRun(ctx context.Context, runID string, counts RunCounts) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE ingestion_runs
		SET status = ?,
		    finished_ts = ?,
		    total_fetched = ?,
		    new_transactions = ?,
		    categorized = ?,
		    stored = ?,
		    synced = ?
		WHERE run_id = ?`,
		RunStatusSuccess,
		time.Now().UTC().Format(tsFormat),
		counts.TotalFetched,
		counts.NewTransactions,
		counts.Categorized,
		counts.Stored,
		counts.Synced,
		runID,
	)
	if err != nil {
		return fmt.Errorf("FinishRun: update run %s: %w", runID, err)
	}
	return nil
}

// FailRun marks a run as FAILED with a truncated error message. It is
// best-effort: a bookkeeping failure here must not mask the run error,
// so it logs instead of returning.
func (r *RunRepository) FailRun(ctx context.Context, runID string, runErr error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE ingestion_runs
		SET status = ?,
		    finished_ts = ?,
		    error_message = ?
		WHERE run_id = ?`,
		RunStatusFailed,
		time.Now().UTC().Format(tsFormat),
		errMsg,
		runID,
	)
	if err != nil {
		log.Error().Err(err).Str("run_id", runID).Msg("Failed to mark ingestion run as failed")
	}
}

// GetRunStatus returns the stored status for a run. Used mainly by tests
// and ad-hoc inspection.
func (r *RunRepository) GetRunStatus(ctx context.Context, runID string) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT status FROM ingestion_runs WHERE run_id = ?`, runID,
	).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("GetRunStatus: query run %s: %w", runID, err)
	}
	return status, nil
}
