// Package bankfeed fetches transaction facts from the Plaid API.
package bankfeed

import (
	"context"
	"fmt"
	"time"

	"github.com/plaid/plaid-go/v27/plaid"

	"github.com/dvloznov/spendsmart/internal/config"
	"github.com/dvloznov/spendsmart/internal/logger"
	"github.com/dvloznov/spendsmart/internal/model"
)

const (
	dateFormat = "2006-01-02"
	// pageSize is the Plaid /transactions/get maximum page size.
	pageSize = 500
)

// Client wraps the Plaid API client for transaction fetches.
type Client struct {
	api        *plaid.APIClient
	accountIDs []string // optional account filter; empty fetches all
}

// New creates a Plaid client from configuration. Any accountIDs restrict
// fetches to those accounts.
func New(cfg config.PlaidConfig, accountIDs ...string) *Client {
	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	configuration.UseEnvironment(environmentFor(cfg.Environment))

	return &Client{
		api:        plaid.NewAPIClient(configuration),
		accountIDs: accountIDs,
	}
}

func environmentFor(name string) plaid.Environment {
	if name == "production" {
		return plaid.Production
	}
	return plaid.Sandbox
}

// FetchTransactions pulls all transactions in [start, end] for the given
// access token, paging through the feed until the reported total is
// reached. Dates are sent at day granularity.
func (c *Client) FetchTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]model.Transaction, error) {
	log := logger.FromContext(ctx)

	var collected []model.Transaction
	offset := int32(0)

	for {
		request := plaid.NewTransactionsGetRequest(
			accessToken,
			start.Format(dateFormat),
			end.Format(dateFormat),
		)
		options := plaid.NewTransactionsGetRequestOptions()
		options.SetCount(pageSize)
		options.SetOffset(offset)
		if len(c.accountIDs) > 0 {
			options.SetAccountIds(c.accountIDs)
		}
		request.SetOptions(*options)

		resp, _, err := c.api.PlaidApi.TransactionsGet(ctx).
			TransactionsGetRequest(*request).
			Execute()
		if err != nil {
			return nil, fmt.Errorf("FetchTransactions: transactions get (offset %d): %w", offset, err)
		}

		batch := resp.GetTransactions()
		for _, raw := range batch {
			tx, err := mapTransaction(raw)
			if err != nil {
				return nil, fmt.Errorf("FetchTransactions: %w", err)
			}
			collected = append(collected, tx)
		}

		total := int(resp.GetTotalTransactions())
		offset += int32(len(batch))
		if len(collected) >= total || len(batch) == 0 {
			break
		}
	}

	log.Info().
		Int("count", len(collected)).
		Str("start", start.Format(dateFormat)).
		Str("end", end.Format(dateFormat)).
		Msg("Fetched transactions from Plaid")

	return collected, nil
}

// mapTransaction converts one Plaid transaction into the pipeline's
// fact record.
func mapTransaction(raw plaid.Transaction) (model.Transaction, error) {
	date, err := time.Parse(dateFormat, raw.GetDate())
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %s: invalid date %q: %w",
			raw.GetTransactionId(), raw.GetDate(), err)
	}

	tx := model.Transaction{
		TransactionID: raw.GetTransactionId(),
		AccountID:     raw.GetAccountId(),
		Amount:        raw.GetAmount(),
		Date:          date,
		Name:          raw.GetName(),
		IsPending:     raw.GetPending(),
	}

	if merchant, ok := raw.GetMerchantNameOk(); ok && merchant != nil && *merchant != "" {
		name := *merchant
		tx.MerchantName = &name
	}

	// Prefer the bank's original description; fall back to the display
	// name so the classifier always has a description to work with.
	if original, ok := raw.GetOriginalDescriptionOk(); ok && original != nil && *original != "" {
		descr := *original
		tx.Description = &descr
	} else {
		descr := raw.GetName()
		tx.Description = &descr
	}

	return tx, nil
}
