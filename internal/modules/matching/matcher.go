// Package matching pairs sell trades with open buy lots using FIFO order.
package matching

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tmarkov/tradebook/internal/domain"
)

// Matcher replays a trade sequence into completed trades and open lots.
// It holds no state between calls; Match is safe for concurrent use.
type Matcher struct {
	log zerolog.Logger
}

// NewMatcher creates a new lot matcher.
func NewMatcher(log zerolog.Logger) *Matcher {
	return &Matcher{
		log: log.With().Str("component", "matcher").Logger(),
	}
}

// Result holds the outcome of matching one trade sequence.
type Result struct {
	Completed []domain.CompletedTrade
	// OpenLots maps instrument code to its remaining open lots, oldest first.
	OpenLots map[string][]domain.Lot
}

// OpenQuantity returns the total open quantity for one instrument.
func (r Result) OpenQuantity(symbol string) int64 {
	var total int64
	for _, lot := range r.OpenLots[symbol] {
		total += lot.Remaining
	}
	return total
}

// Match replays trades in timestamp order (ties broken by insertion id, so
// the order equals persisted insertion order). Buys open lots; sells consume
// the oldest lots first, emitting one CompletedTrade per consumed slice.
//
// A sell larger than the open quantity for its instrument is an oversell:
// Match fails with a ValidationError and emits nothing partial. The trade log
// is assumed consistent; the matcher does not fabricate lots.
func (m *Matcher) Match(trades []domain.Trade) (Result, error) {
	ordered := make([]domain.Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].ExecutedAt.Equal(ordered[j].ExecutedAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].ExecutedAt.Before(ordered[j].ExecutedAt)
	})

	lots := make(map[string][]domain.Lot)
	var completed []domain.CompletedTrade

	for _, trade := range ordered {
		switch trade.Side {
		case domain.SideBuy:
			lots[trade.Symbol] = append(lots[trade.Symbol], domain.Lot{
				Symbol:    trade.Symbol,
				Remaining: trade.Quantity,
				UnitPrice: trade.Price,
				OpenedAt:  trade.ExecutedAt,
			})

		case domain.SideSell:
			open := lots[trade.Symbol]
			var available int64
			for _, lot := range open {
				available += lot.Remaining
			}
			if trade.Quantity > available {
				return Result{}, domain.NewValidationError("quantity",
					"oversell for %s: selling %d with only %d open", trade.Symbol, trade.Quantity, available)
			}

			remaining := trade.Quantity
			consumed := 0
			for i := range open {
				if remaining == 0 {
					break
				}
				lot := &open[i]
				take := lot.Remaining
				if remaining < take {
					take = remaining
				}

				completed = append(completed, domain.CompletedTrade{
					Symbol:         trade.Symbol,
					BuyAt:          lot.OpenedAt,
					SellAt:         trade.ExecutedAt,
					Quantity:       take,
					BuyPrice:       lot.UnitPrice,
					SellPrice:      trade.Price,
					RealizedProfit: float64(take) * (trade.Price - lot.UnitPrice),
					HoldingDays:    wholeDays(lot.OpenedAt, trade.ExecutedAt),
				})

				lot.Remaining -= take
				remaining -= take
				if lot.Remaining == 0 {
					consumed++
				}
			}
			lots[trade.Symbol] = open[consumed:]
			if len(lots[trade.Symbol]) == 0 {
				delete(lots, trade.Symbol)
			}

		default:
			return Result{}, domain.NewValidationError("side", "unknown trade side %q", trade.Side)
		}
	}

	m.log.Debug().
		Int("trades", len(ordered)).
		Int("completed", len(completed)).
		Int("open_instruments", len(lots)).
		Msg("Matched trade sequence")

	return Result{Completed: completed, OpenLots: lots}, nil
}

// wholeDays returns the holding period in whole days. Sub-day remainders are
// truncated, not rounded: a lot bought at 10:00 and sold five calendar days
// later at 09:00 counts as 4 days. Downstream holding-day comparisons assume
// this truncation.
func wholeDays(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}
