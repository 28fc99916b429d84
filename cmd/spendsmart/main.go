package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/spendsmart/internal/bankfeed"
	"github.com/dvloznov/spendsmart/internal/categorize"
	"github.com/dvloznov/spendsmart/internal/config"
	"github.com/dvloznov/spendsmart/internal/logger"
	"github.com/dvloznov/spendsmart/internal/pipeline"
	"github.com/dvloznov/spendsmart/internal/sheets"
	"github.com/dvloznov/spendsmart/internal/store"
)

func main() {
	// Parse CLI flags
	accessToken := flag.String("access-token", "", "Plaid access token for the linked item (required)")
	days := flag.Int("days", pipeline.DefaultDays, "trailing window of transactions to fetch, in days")
	sync := flag.Bool("sync", true, "mirror unsynced transactions to Google Sheets")
	accounts := flag.String("accounts", "", "comma-separated account IDs to restrict the fetch to")
	summary := flag.Bool("summary", false, "print the spend-by-category summary after the run")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize structured logger
	log := logger.NewWithLevel(cfg.LogLevel)

	if *accessToken == "" {
		log.Fatal().Msg("Error: --access-token is required")
	}

	// Create context with timeout so the CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	// Open storage and run migrations
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("Failed to open database")
	}
	defer db.Close()

	txRepo := store.NewTransactionRepository(db)
	runRepo := store.NewRunRepository(db)

	// Bank feed
	var accountIDs []string
	if *accounts != "" {
		accountIDs = strings.Split(*accounts, ",")
	}
	feed := bankfeed.New(cfg.Plaid, accountIDs...)

	// Categorizer
	gen, err := categorize.NewGeminiGenerator(ctx, cfg.Gemini)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}
	categorizer := categorize.NewService(gen)

	// Sheet mirror is optional: without a spreadsheet ID the run stores
	// transactions locally and leaves them unsynced.
	var mirror pipeline.SheetMirror
	if cfg.Sheets.SpreadsheetID != "" {
		m, err := sheets.NewMirror(ctx, cfg.Sheets)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Sheets client")
		}
		mirror = m
	} else if *sync {
		log.Warn().Msg("GOOGLE_SHEETS_SPREADSHEET_ID not set, sheet sync disabled")
	}

	svc := pipeline.New(feed, categorizer, txRepo, runRepo, mirror)

	stats, err := svc.Run(ctx, *accessToken, pipeline.Options{Days: *days, Sync: *sync})
	if err != nil {
		log.Fatal().Err(err).Msg("Pipeline run failed")
	}

	fmt.Println("Run completed.")
	fmt.Printf("  Fetched:         %d\n", stats.TotalFetched)
	fmt.Printf("  New:             %d\n", stats.NewTransactions)
	fmt.Printf("  Categorized:     %d\n", stats.Categorized)
	fmt.Printf("  Stored:          %d\n", stats.Stored)
	fmt.Printf("  Avg confidence:  %.2f\n", stats.AverageConfidence)
	fmt.Printf("  Categories used: %d\n", stats.CategoriesUsed)
	fmt.Printf("  Synced to sheet: %d\n", stats.SyncedToSheets)

	if *summary {
		printCategorySummary(ctx, txRepo)
	}
}

// printCategorySummary prints aggregate spend per category for all
// stored transactions, most expensive category first.
func printCategorySummary(ctx context.Context, txRepo *store.TransactionRepository) {
	summary, err := txRepo.CategorySummary(ctx)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to load category summary")
		return
	}
	if len(summary) == 0 {
		fmt.Println("No stored transactions yet.")
		return
	}

	fmt.Println("\nSpend by category:")
	for _, row := range summary {
		fmt.Printf("  %-20s %4d txns  $%.2f\n", row.PrimaryCategory, row.Count, row.Total)
	}
}
