package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/spendsmart/internal/model"
)

const (
	dateFormat = "2006-01-02"
	tsFormat   = time.RFC3339
)

// TransactionRepository provides data access methods for the transactions
// table. Writes are keyed by the external transaction_id; a colliding
// insert fails on the UNIQUE constraint and is left to the caller to skip.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new TransactionRepository with the
// provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Exists reports whether a transaction with the given external ID is
// already stored.
func (r *TransactionRepository) Exists(ctx context.Context, transactionID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM transactions WHERE transaction_id = ? LIMIT 1`,
		transactionID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("Exists: query transaction %s: %w", transactionID, err)
	}
	return true, nil
}

// Insert stores a single categorized transaction. A duplicate
// transaction_id violates the UNIQUE constraint and surfaces as an error;
// it never creates a second row.
func (r *TransactionRepository) Insert(ctx context.Context, tx model.Transaction) error {
	now := time.Now().UTC()
	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := tx.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (
			transaction_id, account_id, amount, date, name,
			merchant_name, description, is_pending,
			category, primary_category, subcategory, category_confidence,
			synced_to_sheets, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.TransactionID,
		tx.AccountID,
		tx.Amount,
		tx.Date.Format(dateFormat),
		tx.Name,
		nullableString(tx.MerchantName),
		nullableString(tx.Description),
		boolToInt(tx.IsPending),
		tx.Category,
		tx.PrimaryCategory,
		tx.Subcategory,
		tx.Confidence,
		boolToInt(tx.Synced),
		createdAt.Format(tsFormat),
		updatedAt.Format(tsFormat),
	)
	if err != nil {
		return fmt.Errorf("Insert: transaction %s: %w", tx.TransactionID, err)
	}
	return nil
}

// ListTransactionIDs returns the external IDs of every stored transaction.
// The pipeline uses this set to filter a fetched batch down to new rows.
func (r *TransactionRepository) ListTransactionIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT transaction_id FROM transactions`)
	if err != nil {
		return nil, fmt.Errorf("ListTransactionIDs: query: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListTransactionIDs: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListTransactionIDs: iterate: %w", err)
	}
	return ids, nil
}

// ListUnsynced returns every transaction not yet mirrored to the sheet,
// including leftovers from prior runs whose sync failed.
func (r *TransactionRepository) ListUnsynced(ctx context.Context) ([]model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT transaction_id, account_id, amount, date, name,
		       merchant_name, description, is_pending,
		       category, primary_category, subcategory, category_confidence,
		       synced_to_sheets, created_at, updated_at
		FROM transactions
		WHERE synced_to_sheets = 0
		ORDER BY date ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListUnsynced: query: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("ListUnsynced: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUnsynced: iterate: %w", err)
	}
	return txs, nil
}

// MarkSynced flips synced_to_sheets to true for the given external IDs.
// The update runs in a single SQL transaction. It is only called after a
// successful mirror push of exactly these IDs.
func (r *TransactionRepository) MarkSynced(ctx context.Context, transactionIDs []string) error {
	if len(transactionIDs) == 0 {
		return nil
	}

	placeholders := make([]string, len(transactionIDs))
	args := make([]any, 0, len(transactionIDs)+1)
	args = append(args, time.Now().UTC().Format(tsFormat))
	for i, id := range transactionIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("MarkSynced: begin: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx,
		`UPDATE transactions
		 SET synced_to_sheets = 1, updated_at = ?
		 WHERE transaction_id IN (`+strings.Join(placeholders, ",")+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("MarkSynced: update: %w", err)
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("MarkSynced: commit: %w", err)
	}
	return nil
}

// CategorySpend is one row of the spend-by-category summary.
type CategorySpend struct {
	PrimaryCategory string
	Count           int
	Total           float64 // sum of absolute amounts
}

// CategorySummary aggregates stored transactions by primary category,
// ordered by total spend descending.
func (r *TransactionRepository) CategorySummary(ctx context.Context) ([]CategorySpend, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT CASE WHEN primary_category = '' THEN 'Other' ELSE primary_category END AS category,
		       COUNT(*),
		       SUM(ABS(amount))
		FROM transactions
		GROUP BY category
		ORDER BY SUM(ABS(amount)) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("CategorySummary: query: %w", err)
	}
	defer rows.Close()

	var summary []CategorySpend
	for rows.Next() {
		var cs CategorySpend
		if err := rows.Scan(&cs.PrimaryCategory, &cs.Count, &cs.Total); err != nil {
			return nil, fmt.Errorf("CategorySummary: scan: %w", err)
		}
		summary = append(summary, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("CategorySummary: iterate: %w", err)
	}
	return summary, nil
}

func scanTransaction(rows *sql.Rows) (model.Transaction, error) {
	var (
		tx                     model.Transaction
		dateStr, createdAtStr  string
		updatedAtStr           string
		merchantName, descr    sql.NullString
		isPending, synced      int
	)

	err := rows.Scan(
		&tx.TransactionID,
		&tx.AccountID,
		&tx.Amount,
		&dateStr,
		&tx.Name,
		&merchantName,
		&descr,
		&isPending,
		&tx.Category,
		&tx.PrimaryCategory,
		&tx.Subcategory,
		&tx.Confidence,
		&synced,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	tx.Date, err = time.Parse(dateFormat, dateStr)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parse date %q: %w", dateStr, err)
	}
	tx.CreatedAt, err = time.Parse(tsFormat, createdAtStr)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parse created_at %q: %w", createdAtStr, err)
	}
	tx.UpdatedAt, err = time.Parse(tsFormat, updatedAtStr)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parse updated_at %q: %w", updatedAtStr, err)
	}

	if merchantName.Valid {
		tx.MerchantName = &merchantName.String
	}
	if descr.Valid {
		tx.Description = &descr.String
	}
	tx.IsPending = isPending != 0
	tx.Synced = synced != 0

	return tx, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
