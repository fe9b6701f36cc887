package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarkov/tradebook/internal/domain"
	"github.com/tmarkov/tradebook/internal/modules/holdings"
	"github.com/tmarkov/tradebook/internal/modules/matching"
)

type fixedPrices map[string]float64

func (p fixedPrices) Quote(ctx context.Context, symbol string) (float64, error) {
	price, ok := p[symbol]
	if !ok {
		return 0, &domain.DataUnavailableError{Symbol: symbol}
	}
	return price, nil
}

func newActualCalculator(prices fixedPrices) *ActualCalculator {
	log := zerolog.Nop()
	return NewActualCalculator(
		matching.NewMatcher(log),
		holdings.NewAggregator(prices, time.Second, log),
		log,
	)
}

func at(d int) time.Time {
	return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func mkTrade(id int64, side domain.TradeSide, qty int64, price float64, when time.Time) domain.Trade {
	return domain.Trade{ID: id, Symbol: "ACME", Side: side, Quantity: qty, Price: price, ExecutedAt: when}
}

func TestComputeRealizedAndUnrealized(t *testing.T) {
	calc := newActualCalculator(fixedPrices{"ACME": 12})

	trades := []domain.Trade{
		mkTrade(1, domain.SideBuy, 200, 10, at(0)),
		mkTrade(2, domain.SideSell, 100, 15, at(10)), // realized: 100*(15-10)=500
	}

	metrics, summary, err := calc.Compute(context.Background(), ActualInput{
		Trades:      trades,
		BaseCapital: 100_000,
		WindowStart: at(-1),
		WindowEnd:   at(30),
	})
	require.NoError(t, err)

	assert.InDelta(t, 500, metrics.RealizedProfit, 1e-9)
	// 100 shares open at cost 10, marked to 12.
	assert.InDelta(t, 200, metrics.UnrealizedProfit, 1e-9)
	assert.InDelta(t, 700, metrics.TotalProfit, 1e-9)
	assert.InDelta(t, 700.0/100_000, metrics.ReturnRate, 1e-12)
	assert.Equal(t, 1, metrics.CompletedCount)
	assert.Equal(t, 1.0, metrics.SuccessRate)
	assert.Equal(t, 10.0, metrics.HoldingDays)
	require.Len(t, summary.Holdings, 1)
}

func TestComputeZeroTradesSuccessRate(t *testing.T) {
	calc := newActualCalculator(fixedPrices{})

	metrics, _, err := calc.Compute(context.Background(), ActualInput{
		Trades:      nil,
		BaseCapital: 100_000,
		WindowStart: at(0),
		WindowEnd:   at(30),
	})
	require.NoError(t, err)

	assert.Zero(t, metrics.SuccessRate)
	assert.Zero(t, metrics.HoldingDays)
	assert.Zero(t, metrics.TotalProfit)
}

func TestComputeWindowIsHalfOpen(t *testing.T) {
	calc := newActualCalculator(fixedPrices{"ACME": 10})

	start, end := at(0), at(10)
	trades := []domain.Trade{
		mkTrade(1, domain.SideBuy, 100, 10, start),                 // included: start is inclusive
		mkTrade(2, domain.SideBuy, 100, 10, end),                   // excluded: end is exclusive
		mkTrade(3, domain.SideBuy, 100, 10, start.AddDate(0, 0, -1)), // excluded: before start
	}

	metrics, summary, err := calc.Compute(context.Background(), ActualInput{
		Trades:      trades,
		BaseCapital: 100_000,
		WindowStart: start,
		WindowEnd:   end,
	})
	require.NoError(t, err)

	assert.Zero(t, metrics.RealizedProfit)
	require.Len(t, summary.Holdings, 1)
	assert.Equal(t, int64(100), summary.Holdings[0].Quantity)
}

func TestComputeWeightedHoldingDays(t *testing.T) {
	calc := newActualCalculator(fixedPrices{})

	trades := []domain.Trade{
		mkTrade(1, domain.SideBuy, 100, 10, at(0)),
		mkTrade(2, domain.SideBuy, 300, 10, at(5)),
		mkTrade(3, domain.SideSell, 400, 12, at(10)),
	}

	metrics, _, err := calc.Compute(context.Background(), ActualInput{
		Trades:      trades,
		BaseCapital: 100_000,
		WindowStart: at(-1),
		WindowEnd:   at(30),
	})
	require.NoError(t, err)

	// (100*10 + 300*5) / 400 = 6.25
	assert.InDelta(t, 6.25, metrics.HoldingDays, 1e-9)
	assert.Equal(t, 2, metrics.CompletedCount)
}

func TestComputeRejectsNonPositiveCapital(t *testing.T) {
	calc := newActualCalculator(fixedPrices{})

	_, _, err := calc.Compute(context.Background(), ActualInput{BaseCapital: 0, WindowStart: at(0), WindowEnd: at(1)})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestComputePropagatesOversell(t *testing.T) {
	calc := newActualCalculator(fixedPrices{})

	trades := []domain.Trade{
		mkTrade(1, domain.SideBuy, 100, 10, at(0)),
		mkTrade(2, domain.SideSell, 200, 15, at(1)),
	}

	_, _, err := calc.Compute(context.Background(), ActualInput{
		Trades:      trades,
		BaseCapital: 100_000,
		WindowStart: at(-1),
		WindowEnd:   at(30),
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}
