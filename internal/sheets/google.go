package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/dvloznov/spendsmart/internal/config"
)

// NewMirror builds a Mirror backed by the real Google Sheets API.
func NewMirror(ctx context.Context, cfg config.SheetsConfig) (*Mirror, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("NewMirror: spreadsheet ID is required")
	}

	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("NewMirror: create sheets service: %w", err)
	}

	return newMirror(&googleValuesAPI{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
	}, cfg.SheetName), nil
}

// googleValuesAPI is the valuesAPI implementation over *sheetsapi.Service.
type googleValuesAPI struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

func (g *googleValuesAPI) SheetTitles(ctx context.Context) ([]string, error) {
	spreadsheet, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet %s: %w", g.spreadsheetID, err)
	}

	titles := make([]string, 0, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			titles = append(titles, sheet.Properties.Title)
		}
	}
	return titles, nil
}

func (g *googleValuesAPI) AddSheet(ctx context.Context, title string) error {
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{
			{
				AddSheet: &sheetsapi.AddSheetRequest{
					Properties: &sheetsapi.SheetProperties{Title: title},
				},
			},
		},
	}
	_, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch update: %w", err)
	}
	return nil
}

func (g *googleValuesAPI) Clear(ctx context.Context, rangeA1 string) error {
	_, err := g.svc.Spreadsheets.Values.
		Clear(g.spreadsheetID, rangeA1, &sheetsapi.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", rangeA1, err)
	}
	return nil
}

func (g *googleValuesAPI) Update(ctx context.Context, rangeA1 string, values [][]any) error {
	body := &sheetsapi.ValueRange{Values: values}
	_, err := g.svc.Spreadsheets.Values.
		Update(g.spreadsheetID, rangeA1, body).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rangeA1, err)
	}
	return nil
}

func (g *googleValuesAPI) Append(ctx context.Context, rangeA1 string, values [][]any) error {
	body := &sheetsapi.ValueRange{Values: values}
	_, err := g.svc.Spreadsheets.Values.
		Append(g.spreadsheetID, rangeA1, body).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append %s: %w", rangeA1, err)
	}
	return nil
}
