package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dvloznov/spendsmart/internal/model"
	"github.com/dvloznov/spendsmart/internal/store"
)

// newTestDB opens an in-memory SQLite database with migrations applied.
// MaxOpenConns is pinned to 1 so every query sees the same in-memory DB.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testTransaction(id string) model.Transaction {
	merchant := "Tesco"
	return model.Transaction{
		TransactionID:   id,
		AccountID:       "acc-1",
		Amount:          -23.10,
		Date:            time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
		Name:            "TESCO STORES 3342",
		MerchantName:    &merchant,
		PrimaryCategory: "Food & Dining",
		Subcategory:     "Groceries",
		Category:        "Food & Dining - Groceries",
		Confidence:      0.9,
	}
}

func TestInsertAndExists(t *testing.T) {
	ctx := context.Background()
	repo := store.NewTransactionRepository(newTestDB(t))

	exists, err := repo.Exists(ctx, "tx-1")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("Exists = true before insert, want false")
	}

	if err := repo.Insert(ctx, testTransaction("tx-1")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	exists, err = repo.Exists(ctx, "tx-1")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Error("Exists = false after insert, want true")
	}
}

func TestInsert_DuplicateIDRejected(t *testing.T) {
	ctx := context.Background()
	repo := store.NewTransactionRepository(newTestDB(t))

	if err := repo.Insert(ctx, testTransaction("tx-1")); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if err := repo.Insert(ctx, testTransaction("tx-1")); err == nil {
		t.Fatal("second Insert with same transaction_id succeeded, want error")
	}

	// The duplicate must not have created a second row.
	ids, err := repo.ListTransactionIDs(ctx)
	if err != nil {
		t.Fatalf("ListTransactionIDs: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("stored row count = %d, want 1", len(ids))
	}
}

func TestListUnsyncedAndMarkSynced(t *testing.T) {
	ctx := context.Background()
	repo := store.NewTransactionRepository(newTestDB(t))

	for _, id := range []string{"tx-1", "tx-2", "tx-3"} {
		if err := repo.Insert(ctx, testTransaction(id)); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
	}

	unsynced, err := repo.ListUnsynced(ctx)
	if err != nil {
		t.Fatalf("ListUnsynced: %v", err)
	}
	if len(unsynced) != 3 {
		t.Fatalf("unsynced count = %d, want 3", len(unsynced))
	}
	for _, tx := range unsynced {
		if tx.Synced {
			t.Errorf("transaction %s reported synced before any push", tx.TransactionID)
		}
	}

	// Round-trip check on one row.
	got := unsynced[0]
	if got.PrimaryCategory != "Food & Dining" || got.Subcategory != "Groceries" {
		t.Errorf("category round-trip got %q/%q", got.PrimaryCategory, got.Subcategory)
	}
	if got.MerchantName == nil || *got.MerchantName != "Tesco" {
		t.Errorf("merchant round-trip got %v", got.MerchantName)
	}
	if got.Amount != -23.10 {
		t.Errorf("amount round-trip got %v", got.Amount)
	}

	if err := repo.MarkSynced(ctx, []string{"tx-1", "tx-3"}); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}

	unsynced, err = repo.ListUnsynced(ctx)
	if err != nil {
		t.Fatalf("ListUnsynced after mark: %v", err)
	}
	if len(unsynced) != 1 || unsynced[0].TransactionID != "tx-2" {
		t.Errorf("after MarkSynced unsynced = %+v, want only tx-2", unsynced)
	}
}

func TestMarkSynced_EmptyIDs(t *testing.T) {
	ctx := context.Background()
	repo := store.NewTransactionRepository(newTestDB(t))

	if err := repo.MarkSynced(ctx, nil); err != nil {
		t.Errorf("MarkSynced(nil) = %v, want nil", err)
	}
}

func TestCategorySummary(t *testing.T) {
	ctx := context.Background()
	repo := store.NewTransactionRepository(newTestDB(t))

	insert := func(id, category string, amount float64) {
		t.Helper()
		tx := testTransaction(id)
		tx.PrimaryCategory = category
		tx.Amount = amount
		if err := repo.Insert(ctx, tx); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
	}

	insert("tx-1", "Food & Dining", -10)
	insert("tx-2", "Food & Dining", -15)
	insert("tx-3", "Travel", -100)
	insert("tx-4", "", -1) // uncategorized rows roll up under Other

	summary, err := repo.CategorySummary(ctx)
	if err != nil {
		t.Fatalf("CategorySummary: %v", err)
	}
	if len(summary) != 3 {
		t.Fatalf("summary rows = %d, want 3", len(summary))
	}

	// Ordered by total |amount| descending.
	if summary[0].PrimaryCategory != "Travel" || summary[0].Total != 100 || summary[0].Count != 1 {
		t.Errorf("summary[0] = %+v, want Travel/100/1", summary[0])
	}
	if summary[1].PrimaryCategory != "Food & Dining" || summary[1].Total != 25 || summary[1].Count != 2 {
		t.Errorf("summary[1] = %+v, want Food & Dining/25/2", summary[1])
	}
	if summary[2].PrimaryCategory != "Other" {
		t.Errorf("summary[2] = %+v, want Other", summary[2])
	}
}
