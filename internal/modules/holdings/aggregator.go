package holdings

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tmarkov/tradebook/internal/domain"
)

// Unavailable marks an instrument whose price lookup failed. Its lots are
// excluded from the totals but the degradation stays visible to the caller.
type Unavailable struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// Summary aggregates all open positions marked to market.
type Summary struct {
	Holdings            []domain.Holding `json:"holdings"`
	Unavailable         []Unavailable    `json:"unavailable,omitempty"`
	TotalCost           float64          `json:"total_cost"`
	TotalMarketValue    float64          `json:"total_market_value"`
	TotalFloatingProfit float64          `json:"total_floating_profit"`
}

// Aggregator computes current holdings from open lots and a price source.
// Stateless; safe for concurrent use.
type Aggregator struct {
	prices  domain.PriceSource
	timeout time.Duration
	log     zerolog.Logger
}

// NewAggregator creates a holding aggregator. The timeout bounds each
// per-instrument price lookup.
func NewAggregator(prices domain.PriceSource, timeout time.Duration, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		prices:  prices,
		timeout: timeout,
		log:     log.With().Str("component", "holdings").Logger(),
	}
}

// Aggregate builds one Holding per instrument with open lots: the quantity is
// the sum of remaining lot quantities, the cost is the quantity-weighted
// average of the lots, and the floating profit marks the position to the
// market price, fetched once per instrument per call.
func (a *Aggregator) Aggregate(ctx context.Context, lots map[string][]domain.Lot) Summary {
	symbols := make([]string, 0, len(lots))
	for symbol := range lots {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	var summary Summary
	for _, symbol := range symbols {
		var quantity int64
		var cost float64
		for _, lot := range lots[symbol] {
			quantity += lot.Remaining
			cost += float64(lot.Remaining) * lot.UnitPrice
		}
		if quantity == 0 {
			continue
		}
		weightedCost := cost / float64(quantity)

		lookupCtx, cancel := context.WithTimeout(ctx, a.timeout)
		price, err := a.prices.Quote(lookupCtx, symbol)
		cancel()
		if err != nil {
			a.log.Warn().Err(err).Str("symbol", symbol).Msg("Instrument excluded from totals")
			summary.Unavailable = append(summary.Unavailable, Unavailable{
				Symbol: symbol,
				Reason: err.Error(),
			})
			continue
		}

		holding := domain.Holding{
			Symbol:         symbol,
			Quantity:       quantity,
			WeightedCost:   weightedCost,
			MarketPrice:    price,
			MarketValue:    float64(quantity) * price,
			FloatingProfit: float64(quantity) * (price - weightedCost),
		}
		summary.Holdings = append(summary.Holdings, holding)
		summary.TotalCost += cost
		summary.TotalMarketValue += holding.MarketValue
		summary.TotalFloatingProfit += holding.FloatingProfit
	}

	return summary
}
