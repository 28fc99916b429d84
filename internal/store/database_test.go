package store_test

import (
	"testing"

	"github.com/dvloznov/spendsmart/internal/store"
)

func TestRunMigrationCommand(t *testing.T) {
	db, err := store.Connect(":memory:")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := store.RunMigrationCommand(db, "up"); err != nil {
		t.Fatalf("up: %v", err)
	}

	// Schema is in place after up.
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&n); err != nil {
		t.Fatalf("transactions table missing after up: %v", err)
	}

	if err := store.RunMigrationCommand(db, "down"); err != nil {
		t.Fatalf("down: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&n); err == nil {
		t.Error("transactions table still present after down")
	}

	if err := store.RunMigrationCommand(db, "sideways"); err == nil {
		t.Error("unknown command accepted")
	}
}
