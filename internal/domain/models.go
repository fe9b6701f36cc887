// Package domain provides core domain models and types for the trading journal.
package domain

import (
	"strings"
	"time"
)

// LotSize is the board lot every trade quantity must be a multiple of.
const LotSize int64 = 100

// TradeSide represents the direction of a trade
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// Trade represents a single journal entry: one executed buy or sell.
// Trades are immutable once matched; the analytics engine only reads them.
type Trade struct {
	ExecutedAt time.Time `json:"executed_at"`
	CreatedAt  time.Time `json:"created_at"`
	Ref        string    `json:"ref"` // External correlation id (UUID), assigned on create
	Symbol     string    `json:"symbol"`
	Side       TradeSide `json:"side"`
	Reason     string    `json:"reason"`
	ID         int64     `json:"id"`
	Quantity   int64     `json:"quantity"`
	Price      float64   `json:"price"`
}

// Validate checks trade fields before the trade enters the ledger.
func (t Trade) Validate() error {
	if strings.TrimSpace(t.Symbol) == "" {
		return NewValidationError("symbol", "symbol is required")
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return NewValidationError("side", "side must be %q or %q, got %q", SideBuy, SideSell, t.Side)
	}
	if t.Price <= 0 {
		return NewValidationError("price", "price must be positive, got %v", t.Price)
	}
	if t.Quantity <= 0 {
		return NewValidationError("quantity", "quantity must be positive, got %d", t.Quantity)
	}
	if t.Quantity%LotSize != 0 {
		return NewValidationError("quantity", "quantity %d is not a multiple of the board lot %d", t.Quantity, LotSize)
	}
	if t.ExecutedAt.IsZero() {
		return NewValidationError("executed_at", "executed_at is required")
	}
	return nil
}

// Lot is the unmatched remainder of a buy trade: an open position slice.
// Remaining is decremented as later sells consume the lot; the lot is dropped
// when Remaining reaches zero.
type Lot struct {
	OpenedAt  time.Time `json:"opened_at"`
	Symbol    string    `json:"symbol"`
	Remaining int64     `json:"remaining"`
	UnitPrice float64   `json:"unit_price"`
}

// CompletedTrade is one matched buy/sell quantity slice. A single sell can
// produce several of these when it consumes more than one lot.
type CompletedTrade struct {
	BuyAt          time.Time `json:"buy_at"`
	SellAt         time.Time `json:"sell_at"`
	Symbol         string    `json:"symbol"`
	Quantity       int64     `json:"quantity"`
	BuyPrice       float64   `json:"buy_price"`
	SellPrice      float64   `json:"sell_price"`
	RealizedProfit float64   `json:"realized_profit"`
	HoldingDays    int       `json:"holding_days"`
}

// Holding is a current position marked to the live market price.
// Recomputed on demand, never persisted.
type Holding struct {
	Symbol         string  `json:"symbol"`
	Quantity       int64   `json:"quantity"`
	WeightedCost   float64 `json:"weighted_cost"`
	MarketPrice    float64 `json:"market_price"`
	MarketValue    float64 `json:"market_value"`
	FloatingProfit float64 `json:"floating_profit"`
}

// Fraction is a ratio normalized to fractional form (0.30, never 30).
// Keeping it a distinct type prevents accidental re-normalization.
type Fraction float64

// NormalizeRatio accepts a ratio given either as a fraction (0.30) or as a
// percentage (30) and returns the fractional form. Values above 1 are treated
// as percentages and divided by 100; values above 100 are rejected.
func NormalizeRatio(v float64) (Fraction, error) {
	if v > 100 {
		return 0, NewValidationError("ratio", "ratio %v exceeds 100%%", v)
	}
	if v > 1 {
		return Fraction(v / 100), nil
	}
	return Fraction(v), nil
}

// TimeRange is the analytics window selector.
type TimeRange string

const (
	Range30d TimeRange = "30d"
	Range90d TimeRange = "90d"
	Range1y  TimeRange = "1y"
	RangeAll TimeRange = "all"
)

// ParseTimeRange validates a raw range string.
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case Range30d, Range90d, Range1y, RangeAll:
		return TimeRange(s), nil
	}
	return "", NewValidationError("range", "unknown time range %q (want 30d, 90d, 1y or all)", s)
}

// Name returns the human-readable label for the range.
func (r TimeRange) Name() string {
	switch r {
	case Range30d:
		return "Last 30 days"
	case Range90d:
		return "Last 90 days"
	case Range1y:
		return "Last year"
	case RangeAll:
		return "Since inception"
	}
	return string(r)
}

// Window resolves the range to a half-open interval [start, end) relative to
// now. The "all" range starts at the configured base-capital start date.
func (r TimeRange) Window(now, baseCapitalStart time.Time) (start, end time.Time, err error) {
	end = now
	switch r {
	case Range30d:
		start = now.AddDate(0, 0, -30)
	case Range90d:
		start = now.AddDate(0, 0, -90)
	case Range1y:
		start = now.AddDate(-1, 0, 0)
	case RangeAll:
		start = baseCapitalStart
	default:
		return time.Time{}, time.Time{}, NewValidationError("range", "unknown time range %q", string(r))
	}
	return start, end, nil
}

// String implements fmt.Stringer.
func (r TimeRange) String() string { return string(r) }
