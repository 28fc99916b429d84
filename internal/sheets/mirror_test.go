package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/spendsmart/internal/model"
)

// fakeValuesAPI records calls and returns configurable errors.
type fakeValuesAPI struct {
	titles []string

	clearErr  error
	updateErr error

	addedSheets   []string
	clearedRanges []string
	updatedRange  string
	updatedValues [][]any
	appendedRange string
	appendedRows  [][]any
}

func (f *fakeValuesAPI) SheetTitles(ctx context.Context) ([]string, error) {
	return f.titles, nil
}

func (f *fakeValuesAPI) AddSheet(ctx context.Context, title string) error {
	f.addedSheets = append(f.addedSheets, title)
	f.titles = append(f.titles, title)
	return nil
}

func (f *fakeValuesAPI) Clear(ctx context.Context, rangeA1 string) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.clearedRanges = append(f.clearedRanges, rangeA1)
	return nil
}

func (f *fakeValuesAPI) Update(ctx context.Context, rangeA1 string, values [][]any) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedRange = rangeA1
	f.updatedValues = values
	return nil
}

func (f *fakeValuesAPI) Append(ctx context.Context, rangeA1 string, values [][]any) error {
	f.appendedRange = rangeA1
	f.appendedRows = append(f.appendedRows, values...)
	return nil
}

func mirrorTransaction(id string) model.Transaction {
	merchant := "Amazon"
	return model.Transaction{
		TransactionID:   id,
		AccountID:       "acc-1",
		Amount:          -59.99,
		Date:            time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		Name:            "AMAZON MARKETPLACE",
		MerchantName:    &merchant,
		PrimaryCategory: "Shopping",
		Subcategory:     "Online",
		Category:        "Shopping - Online",
		Confidence:      0.87,
	}
}

func TestSyncSnapshot_WritesHeaderAndRows(t *testing.T) {
	api := &fakeValuesAPI{titles: []string{"Transactions"}}
	m := newMirror(api, "Transactions")

	err := m.SyncSnapshot(context.Background(), []model.Transaction{mirrorTransaction("tx-1")})
	if err != nil {
		t.Fatalf("SyncSnapshot: %v", err)
	}

	if len(api.clearedRanges) != 1 || api.clearedRanges[0] != "Transactions!A:Z" {
		t.Errorf("cleared ranges = %v, want [Transactions!A:Z]", api.clearedRanges)
	}
	if api.updatedRange != "Transactions!A1" {
		t.Errorf("updated range = %q, want Transactions!A1", api.updatedRange)
	}
	if len(api.updatedValues) != 2 {
		t.Fatalf("wrote %d rows, want header + 1 row", len(api.updatedValues))
	}

	header := api.updatedValues[0]
	for i, want := range Header {
		if header[i] != want {
			t.Errorf("header[%d] = %v, want %q", i, header[i], want)
		}
	}

	row := api.updatedValues[1]
	want := []any{"2024-05-10", "AMAZON MARKETPLACE", "Amazon", -59.99, "Shopping", "Online", "", 0.87, "tx-1"}
	if len(row) != len(want) {
		t.Fatalf("row has %d columns, want %d", len(row), len(want))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[%d] = %v, want %v", i, row[i], want[i])
		}
	}
}

func TestSyncSnapshot_CreatesMissingSheet(t *testing.T) {
	api := &fakeValuesAPI{titles: []string{"Sheet1"}}
	m := newMirror(api, "Transactions")

	if err := m.SyncSnapshot(context.Background(), nil); err != nil {
		t.Fatalf("SyncSnapshot: %v", err)
	}
	if len(api.addedSheets) != 1 || api.addedSheets[0] != "Transactions" {
		t.Errorf("added sheets = %v, want [Transactions]", api.addedSheets)
	}
}

func TestSyncSnapshot_FailuresPropagate(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeValuesAPI
	}{
		{"clear fails", &fakeValuesAPI{titles: []string{"Transactions"}, clearErr: errors.New("boom")}},
		{"update fails", &fakeValuesAPI{titles: []string{"Transactions"}, updateErr: errors.New("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMirror(tt.api, "Transactions")
			err := m.SyncSnapshot(context.Background(), []model.Transaction{mirrorTransaction("tx-1")})
			if err == nil {
				t.Error("SyncSnapshot returned nil, want error")
			}
		})
	}
}

func TestAppend_NoHeaderNoClear(t *testing.T) {
	api := &fakeValuesAPI{titles: []string{"Transactions"}}
	m := newMirror(api, "Transactions")

	err := m.Append(context.Background(), []model.Transaction{
		mirrorTransaction("tx-1"),
		mirrorTransaction("tx-2"),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if len(api.clearedRanges) != 0 {
		t.Errorf("Append cleared ranges %v, want none", api.clearedRanges)
	}
	if len(api.appendedRows) != 2 {
		t.Fatalf("appended %d rows, want 2", len(api.appendedRows))
	}
	if api.appendedRows[0][8] != "tx-1" {
		t.Errorf("first appended row id = %v, want tx-1", api.appendedRows[0][8])
	}
}

func TestAppend_EmptyIsNoop(t *testing.T) {
	api := &fakeValuesAPI{}
	m := newMirror(api, "Transactions")

	if err := m.Append(context.Background(), nil); err != nil {
		t.Errorf("Append(nil) = %v, want nil", err)
	}
	if api.appendedRange != "" {
		t.Error("Append(nil) called the API")
	}
}
