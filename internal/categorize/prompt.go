package categorize

import (
	"fmt"
	"math"
	"strings"

	"github.com/dvloznov/spendsmart/internal/model"
)

// buildPromptHeader constructs the fixed instruction block sent before
// every per-transaction facts section.
func buildPromptHeader() string {
	var b strings.Builder

	b.WriteString("You are an expert financial transaction categorizer.\n")
	b.WriteString("Analyze the following transaction and categorize it accurately.\n\n")

	b.WriteString("Available categories: ")
	b.WriteString(strings.Join(Categories, ", "))
	b.WriteString("\n\n")

	b.WriteString("For the transaction, provide:\n")
	b.WriteString("1. Primary category (EXACTLY one of the categories above)\n")
	b.WriteString("2. Subcategory (more specific, e.g. \"Groceries\" under \"Food & Dining\")\n")
	b.WriteString("3. Confidence score (0.0 to 1.0)\n\n")

	b.WriteString("Return STRICT JSON only (no comments, no extra text) with this exact shape:\n")
	b.WriteString("{\n")
	b.WriteString("    \"primary_category\": \"category name\",\n")
	b.WriteString("    \"subcategory\": \"specific subcategory\",\n")
	b.WriteString("    \"confidence\": 0.95\n")
	b.WriteString("}\n\n")

	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Do NOT use ```json or any Markdown.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n\n")

	b.WriteString("Transaction details:\n")

	return b.String()
}

// transactionFacts renders one transaction's facts as the free-text block
// appended to the prompt header.
func transactionFacts(tx model.Transaction) string {
	merchant := "N/A"
	if tx.MerchantName != nil && *tx.MerchantName != "" {
		merchant = *tx.MerchantName
	}
	description := "N/A"
	if tx.Description != nil && *tx.Description != "" {
		description = *tx.Description
	}

	return fmt.Sprintf(
		"Name: %s\nAmount: $%.2f\nMerchant: %s\nDescription: %s\nDate: %s\n",
		tx.Name,
		math.Abs(tx.Amount),
		merchant,
		description,
		tx.Date.Format("2006-01-02"),
	)
}
