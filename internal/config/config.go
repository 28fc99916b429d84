package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application. It is constructed
// once at process start and passed into each collaborator constructor.
type Config struct {
	Plaid    PlaidConfig
	Gemini   GeminiConfig
	Sheets   SheetsConfig
	Database DatabaseConfig
	LogLevel string
}

// PlaidConfig holds Plaid API credentials.
type PlaidConfig struct {
	ClientID    string
	Secret      string
	Environment string // "sandbox" or "production"
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// SheetsConfig holds Google Sheets sink settings. SpreadsheetID may be
// empty, in which case sheet sync is skipped.
type SheetsConfig struct {
	CredentialsFile string
	SpreadsheetID   string
	SheetName       string
}

// DatabaseConfig holds storage settings.
type DatabaseConfig struct {
	Path string
}

// Load reads configuration from environment variables and an optional
// .env file.
func Load() (*Config, error) {
	// Ignore the error if .env doesn't exist.
	_ = godotenv.Load()

	cfg := &Config{
		Plaid: PlaidConfig{
			ClientID:    os.Getenv("PLAID_CLIENT_ID"),
			Secret:      os.Getenv("PLAID_SECRET"),
			Environment: getEnv("PLAID_ENV", "sandbox"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Sheets: SheetsConfig{
			CredentialsFile: getEnv("GOOGLE_SHEETS_CREDENTIALS_FILE", "credentials.json"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"),
			SheetName:       getEnv("GOOGLE_SHEETS_SHEET_NAME", "Transactions"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/spendsmart.db"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.Plaid.ClientID == "" || cfg.Plaid.Secret == "" {
		return nil, fmt.Errorf("config: PLAID_CLIENT_ID and PLAID_SECRET are required")
	}
	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("config: GEMINI_API_KEY is required")
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
