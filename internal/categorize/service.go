package categorize

import (
	"context"

	"github.com/dvloznov/spendsmart/internal/logger"
	"github.com/dvloznov/spendsmart/internal/model"
)

// TextGenerator abstracts the generative model behind the categorizer so
// it can be faked in tests.
type TextGenerator interface {
	// GenerateText submits a prompt and returns the model's text answer.
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Service turns one transaction's facts into a structured category guess.
// Categorize never fails: every failure mode degrades to FallbackResult.
type Service struct {
	gen    TextGenerator
	header string
}

// NewService creates a categorization service on top of the given
// generator.
func NewService(gen TextGenerator) *Service {
	return &Service{
		gen:    gen,
		header: buildPromptHeader(),
	}
}

// Categorize classifies a single transaction. It never returns an error:
// a classifier failure must degrade data quality, not abort the
// ingestion run.
func (s *Service) Categorize(ctx context.Context, tx model.Transaction) model.CategoryResult {
	log := logger.FromContext(ctx)

	raw, err := s.gen.GenerateText(ctx, s.header+transactionFacts(tx))
	if err != nil {
		log.Warn().
			Err(err).
			Str("transaction_id", tx.TransactionID).
			Msg("Classifier call failed, using fallback category")
		return FallbackResult()
	}

	answer, err := parseModelAnswer(raw)
	if err != nil {
		log.Warn().
			Err(err).
			Str("transaction_id", tx.TransactionID).
			Msg("Unparseable classifier output, using fallback category")
		return FallbackResult()
	}

	return model.CategoryResult{
		PrimaryCategory: canonicalCategory(answer.PrimaryCategory),
		Subcategory:     answer.Subcategory,
		Confidence:      clampConfidence(answer.Confidence),
	}
}

func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
