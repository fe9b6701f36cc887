// Package marketdata provides the live quote lookup used to mark open
// positions to market.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/tmarkov/tradebook/internal/domain"
)

// Client fetches quotes from the market data service. It implements
// domain.PriceSource; failures surface as *domain.DataUnavailableError so
// aggregation can degrade per instrument instead of aborting.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new market data client.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "marketdata").Logger(),
	}
}

type quoteResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// Quote fetches the current price for one instrument. The caller's context
// bounds the call in addition to the client-level timeout.
func (c *Client) Quote(ctx context.Context, symbol string) (float64, error) {
	endpoint := fmt.Sprintf("%s/quote/%s", c.baseURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, &domain.DataUnavailableError{Symbol: symbol, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote request failed")
		return 0, &domain.DataUnavailableError{Symbol: symbol, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("quote API returned status %d", resp.StatusCode)
		c.log.Warn().Int("status", resp.StatusCode).Str("symbol", symbol).Msg("Quote request rejected")
		return 0, &domain.DataUnavailableError{Symbol: symbol, Err: err}
	}

	var result quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, &domain.DataUnavailableError{Symbol: symbol, Err: fmt.Errorf("failed to parse quote response: %w", err)}
	}

	if result.Price <= 0 {
		return 0, &domain.DataUnavailableError{Symbol: symbol, Err: fmt.Errorf("quote API returned non-positive price %v", result.Price)}
	}

	c.log.Debug().Str("symbol", symbol).Float64("price", result.Price).Msg("Quote fetched")
	return result.Price, nil
}
