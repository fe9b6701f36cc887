package holdings

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarkov/tradebook/internal/domain"
)

type stubSource struct {
	prices map[string]float64
}

func (s *stubSource) Quote(ctx context.Context, symbol string) (float64, error) {
	price, ok := s.prices[symbol]
	if !ok {
		return 0, &domain.DataUnavailableError{Symbol: symbol}
	}
	return price, nil
}

func openLot(symbol string, qty int64, price float64) domain.Lot {
	return domain.Lot{
		Symbol:    symbol,
		Remaining: qty,
		UnitPrice: price,
		OpenedAt:  time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC),
	}
}

func TestAggregateWeightedCostAndFloatingProfit(t *testing.T) {
	source := &stubSource{prices: map[string]float64{"ACME": 14}}
	agg := NewAggregator(source, time.Second, zerolog.Nop())

	lots := map[string][]domain.Lot{
		"ACME": {openLot("ACME", 100, 10), openLot("ACME", 300, 12)},
	}

	summary := agg.Aggregate(context.Background(), lots)
	require.Len(t, summary.Holdings, 1)

	h := summary.Holdings[0]
	assert.Equal(t, int64(400), h.Quantity)
	// (100*10 + 300*12) / 400 = 11.5
	assert.InDelta(t, 11.5, h.WeightedCost, 1e-9)
	assert.InDelta(t, 400*(14-11.5), h.FloatingProfit, 1e-9)
	assert.InDelta(t, 5600, h.MarketValue, 1e-9)

	assert.InDelta(t, 4600, summary.TotalCost, 1e-9)
	assert.InDelta(t, 5600, summary.TotalMarketValue, 1e-9)
	assert.InDelta(t, 1000, summary.TotalFloatingProfit, 1e-9)
}

func TestAggregateUnavailablePriceIsVisibleNotZeroed(t *testing.T) {
	source := &stubSource{prices: map[string]float64{"ACME": 14}}
	agg := NewAggregator(source, time.Second, zerolog.Nop())

	lots := map[string][]domain.Lot{
		"ACME": {openLot("ACME", 100, 10)},
		"GONE": {openLot("GONE", 200, 5)},
	}

	summary := agg.Aggregate(context.Background(), lots)

	require.Len(t, summary.Holdings, 1)
	assert.Equal(t, "ACME", summary.Holdings[0].Symbol)

	require.Len(t, summary.Unavailable, 1)
	assert.Equal(t, "GONE", summary.Unavailable[0].Symbol)
	assert.NotEmpty(t, summary.Unavailable[0].Reason)

	// GONE must not contribute zeros to the totals.
	assert.InDelta(t, 1000, summary.TotalCost, 1e-9)
	assert.InDelta(t, 1400, summary.TotalMarketValue, 1e-9)
}

func TestAggregateEmptyLots(t *testing.T) {
	agg := NewAggregator(&stubSource{}, time.Second, zerolog.Nop())

	summary := agg.Aggregate(context.Background(), nil)
	assert.Empty(t, summary.Holdings)
	assert.Empty(t, summary.Unavailable)
	assert.Zero(t, summary.TotalFloatingProfit)
}
