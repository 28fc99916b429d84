// Package sheets mirrors stored transactions into a Google Sheets
// spreadsheet. The sync is one-way and clear-then-write: every push
// replaces the full visible content of the named sheet.
package sheets

import (
	"context"
	"fmt"

	"github.com/dvloznov/spendsmart/internal/logger"
	"github.com/dvloznov/spendsmart/internal/model"
)

// Header is the fixed header row written at the top of the sheet.
var Header = []string{
	"Date", "Name", "Merchant", "Amount", "Primary Category",
	"Subcategory", "Description", "Confidence", "Transaction ID",
}

// valuesAPI is the narrow surface of the Sheets API the mirror needs.
// The real implementation wraps *sheets.Service; tests fake it.
type valuesAPI interface {
	SheetTitles(ctx context.Context) ([]string, error)
	AddSheet(ctx context.Context, title string) error
	Clear(ctx context.Context, rangeA1 string) error
	Update(ctx context.Context, rangeA1 string, values [][]any) error
	Append(ctx context.Context, rangeA1 string, values [][]any) error
}

// Mirror pushes transaction snapshots to one sheet of one spreadsheet.
type Mirror struct {
	api       valuesAPI
	sheetName string
}

func newMirror(api valuesAPI, sheetName string) *Mirror {
	return &Mirror{api: api, sheetName: sheetName}
}

// SyncSnapshot replaces the sheet's entire content with a header row
// followed by the given transactions. Any failure is returned to the
// caller, which must not mark the affected rows synced; the next run's
// fresh clear-then-write self-heals a partially written sheet.
func (m *Mirror) SyncSnapshot(ctx context.Context, txs []model.Transaction) error {
	log := logger.FromContext(ctx)

	if err := m.ensureSheet(ctx); err != nil {
		return err
	}

	if err := m.api.Clear(ctx, m.sheetName+"!A:Z"); err != nil {
		return fmt.Errorf("SyncSnapshot: clear sheet: %w", err)
	}

	values := make([][]any, 0, len(txs)+1)
	headerRow := make([]any, len(Header))
	for i, h := range Header {
		headerRow[i] = h
	}
	values = append(values, headerRow)
	for _, tx := range txs {
		values = append(values, transactionRow(tx))
	}

	if err := m.api.Update(ctx, m.sheetName+"!A1", values); err != nil {
		return fmt.Errorf("SyncSnapshot: write rows: %w", err)
	}

	log.Info().Int("rows", len(txs)).Str("sheet", m.sheetName).Msg("Synced transactions to sheet")
	return nil
}

// Append adds the given transactions below the sheet's existing content
// without clearing it and without writing a header.
func (m *Mirror) Append(ctx context.Context, txs []model.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	if err := m.ensureSheet(ctx); err != nil {
		return err
	}

	values := make([][]any, 0, len(txs))
	for _, tx := range txs {
		values = append(values, transactionRow(tx))
	}

	if err := m.api.Append(ctx, m.sheetName+"!A:Z", values); err != nil {
		return fmt.Errorf("Append: append rows: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int("rows", len(txs)).
		Str("sheet", m.sheetName).
		Msg("Appended transactions to sheet")
	return nil
}

// ensureSheet creates the named sheet if the spreadsheet doesn't have it
// yet.
func (m *Mirror) ensureSheet(ctx context.Context) error {
	titles, err := m.api.SheetTitles(ctx)
	if err != nil {
		return fmt.Errorf("ensureSheet: list sheets: %w", err)
	}
	for _, title := range titles {
		if title == m.sheetName {
			return nil
		}
	}
	if err := m.api.AddSheet(ctx, m.sheetName); err != nil {
		return fmt.Errorf("ensureSheet: add sheet %q: %w", m.sheetName, err)
	}
	return nil
}

// transactionRow renders one transaction in Header column order.
func transactionRow(tx model.Transaction) []any {
	merchant := ""
	if tx.MerchantName != nil {
		merchant = *tx.MerchantName
	}
	description := ""
	if tx.Description != nil {
		description = *tx.Description
	}

	return []any{
		tx.Date.Format("2006-01-02"),
		tx.Name,
		merchant,
		tx.Amount,
		tx.PrimaryCategory,
		tx.Subcategory,
		description,
		tx.Confidence,
		tx.TransactionID,
	}
}
