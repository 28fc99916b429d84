package categorize

import (
	"strings"

	"github.com/dvloznov/spendsmart/internal/model"
)

// Categories is the closed set of primary spending categories. The
// classifier is instructed to answer with one of these; anything else is
// normalized or collapsed into the terminal catch-all.
var Categories = []string{
	"Food & Dining",
	"Shopping",
	"Transportation",
	"Bills & Utilities",
	"Entertainment",
	"Healthcare",
	"Travel",
	"Education",
	"Personal Care",
	"Home & Garden",
	"Gifts & Donations",
	"Business Expenses",
	"Other",
}

const (
	fallbackCategory    = "Other"
	fallbackSubcategory = "Uncategorized"
)

// FallbackResult is the fixed degraded result returned whenever
// categorization cannot be completed.
func FallbackResult() model.CategoryResult {
	return model.CategoryResult{
		PrimaryCategory: fallbackCategory,
		Subcategory:     fallbackSubcategory,
		Confidence:      0.0,
		Fallback:        true,
	}
}

// canonicalCategory maps a model-reported category onto the closed set.
// Exact matches pass through; otherwise a case-insensitive substring
// match in either direction is attempted; otherwise "Other".
func canonicalCategory(name string) string {
	trimmed := strings.TrimSpace(name)
	for _, cat := range Categories {
		if trimmed == cat {
			return cat
		}
	}

	lower := strings.ToLower(trimmed)
	if lower == "" {
		return fallbackCategory
	}
	for _, cat := range Categories {
		catLower := strings.ToLower(cat)
		if strings.Contains(catLower, lower) || strings.Contains(lower, catLower) {
			return cat
		}
	}
	return fallbackCategory
}
