package model

import (
	"fmt"
	"time"
)

// Transaction is the single record type that flows through every stage of
// the pipeline. The facts fields are set once when fetched from the bank
// feed; the category fields are set once by categorization before the
// record is first persisted.
type Transaction struct {
	// Facts from the bank feed, immutable once fetched.
	TransactionID string    // external Plaid ID, globally unique
	AccountID     string
	Amount        float64   // negative = debit
	Date          time.Time // day granularity
	Name          string    // raw merchant / line-item text
	MerchantName  *string
	Description   *string
	IsPending     bool

	// Written by the pipeline after categorization.
	PrimaryCategory string
	Subcategory     string
	Category        string // composite display string "{primary} - {sub}"
	Confidence      float64

	// Sync state. Flips false->true only, after a successful mirror push.
	Synced bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CategoryResult is the outcome of one categorization call.
// Fallback distinguishes "the classifier failed and the degraded default
// was applied" from a genuine low-confidence answer.
type CategoryResult struct {
	PrimaryCategory string
	Subcategory     string
	Confidence      float64
	Fallback        bool
}

// Categorized returns a copy of tx with the categorization result merged
// in. The input transaction is not modified.
func Categorized(tx Transaction, res CategoryResult) Transaction {
	tx.PrimaryCategory = res.PrimaryCategory
	tx.Subcategory = res.Subcategory
	tx.Category = DisplayCategory(res.PrimaryCategory, res.Subcategory)
	tx.Confidence = res.Confidence
	return tx
}

// DisplayCategory builds the composite category string stored alongside
// the structured fields.
func DisplayCategory(primary, sub string) string {
	return fmt.Sprintf("%s - %s", primary, sub)
}
