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

type stubClock struct{ now time.Time }

func (c stubClock) Now() time.Time { return c.now }

type stubTrades struct {
	trades []domain.Trade
}

func (s *stubTrades) ListAll() ([]domain.Trade, error) { return s.trades, nil }

func (s *stubTrades) ListBetween(start, end time.Time) ([]domain.Trade, error) {
	var out []domain.Trade
	for _, t := range s.trades {
		if !t.ExecutedAt.Before(start) && t.ExecutedAt.Before(end) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubTrades) CountAll() (int, error) { return len(s.trades), nil }

func newTestService(t *testing.T, trades []domain.Trade, prices fixedPrices, cfg ServiceConfig, now time.Time) *Service {
	t.Helper()
	log := zerolog.Nop()

	matcher := matching.NewMatcher(log)
	aggregator := holdings.NewAggregator(prices, time.Second, log)
	expectation, err := NewExpectationCalculator(DefaultOutcomes(), 15, 0.55)
	require.NoError(t, err)

	return NewService(
		&stubTrades{trades: trades},
		NewActualCalculator(matcher, aggregator, log),
		expectation,
		NewAnalyzer(DefaultThresholds()),
		matcher,
		aggregator,
		stubClock{now: now},
		cfg,
		log,
	)
}

func TestComparisonReportEndToEnd(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	baseStart := time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)

	trades := []domain.Trade{
		{ID: 1, Symbol: "ACME", Side: domain.SideBuy, Quantity: 200, Price: 10, ExecutedAt: now.AddDate(0, 0, -20)},
		{ID: 2, Symbol: "ACME", Side: domain.SideSell, Quantity: 200, Price: 15, ExecutedAt: now.AddDate(0, 0, -5)},
	}

	svc := newTestService(t, trades, fixedPrices{"ACME": 12}, ServiceConfig{
		BaseCapital:      100_000,
		BaseCapitalStart: baseStart,
	}, now)

	report, err := svc.ComparisonReport(context.Background(), domain.Range30d)
	require.NoError(t, err)

	assert.Equal(t, domain.Range30d, report.TimeRange.Range)
	assert.Equal(t, "Last 30 days", report.TimeRange.RangeName)
	assert.Equal(t, 2, report.TimeRange.TradeCount)
	assert.Equal(t, now, report.TimeRange.EndDate)

	assert.InDelta(t, 1000, report.Actual.RealizedProfit, 1e-9)
	assert.InDelta(t, 0.01, report.Actual.ReturnRate, 1e-12)
	assert.InDelta(t, 0.041, report.Expectation.ReturnRate, 1e-9)
	require.Len(t, report.Comparisons, 4)
}

func TestComparisonReportUnknownRange(t *testing.T) {
	svc := newTestService(t, nil, fixedPrices{}, ServiceConfig{BaseCapital: 1000}, time.Now())

	_, err := svc.ComparisonReport(context.Background(), domain.TimeRange("7d"))
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestComparisonReportAllRangeCounts(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	baseStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	trades := []domain.Trade{
		// Before the base-capital start date: excluded from amounts.
		{ID: 1, Symbol: "OLD", Side: domain.SideBuy, Quantity: 100, Price: 5, ExecutedAt: baseStart.AddDate(0, -6, 0)},
		{ID: 2, Symbol: "ACME", Side: domain.SideBuy, Quantity: 100, Price: 10, ExecutedAt: baseStart.AddDate(0, 2, 0)},
	}

	withCounts := newTestService(t, trades, fixedPrices{"ACME": 11}, ServiceConfig{
		BaseCapital:           100_000,
		BaseCapitalStart:      baseStart,
		IncludePrestartCounts: true,
	}, now)

	report, err := withCounts.ComparisonReport(context.Background(), domain.RangeAll)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TimeRange.TradeCount, "pre-start trade counted")
	require.Len(t, report.Holdings.Holdings, 1)
	assert.Equal(t, "ACME", report.Holdings.Holdings[0].Symbol, "pre-start lot excluded from amounts")

	withoutCounts := newTestService(t, trades, fixedPrices{"ACME": 11}, ServiceConfig{
		BaseCapital:      100_000,
		BaseCapitalStart: baseStart,
	}, now)

	report, err = withoutCounts.ComparisonReport(context.Background(), domain.RangeAll)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TimeRange.TradeCount)
}

func TestCurrentHoldingsAndOpenSymbols(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	trades := []domain.Trade{
		{ID: 1, Symbol: "ACME", Side: domain.SideBuy, Quantity: 100, Price: 10, ExecutedAt: now.AddDate(0, 0, -3)},
		{ID: 2, Symbol: "BETA", Side: domain.SideBuy, Quantity: 200, Price: 5, ExecutedAt: now.AddDate(0, 0, -2)},
		{ID: 3, Symbol: "BETA", Side: domain.SideSell, Quantity: 200, Price: 6, ExecutedAt: now.AddDate(0, 0, -1)},
	}

	svc := newTestService(t, trades, fixedPrices{"ACME": 12}, ServiceConfig{BaseCapital: 1000}, now)

	summary, err := svc.CurrentHoldings(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Holdings, 1)
	assert.Equal(t, "ACME", summary.Holdings[0].Symbol)

	symbols, err := svc.OpenSymbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME"}, symbols)
}
