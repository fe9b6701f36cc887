package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tmarkov/tradebook/internal/domain"
	"github.com/tmarkov/tradebook/internal/modules/holdings"
	"github.com/tmarkov/tradebook/internal/modules/matching"
)

// TradeReader is the read contract the analytics engine needs from the
// persistence layer: an orderable trade feed.
type TradeReader interface {
	ListAll() ([]domain.Trade, error)
	ListBetween(start, end time.Time) ([]domain.Trade, error)
	CountAll() (int, error)
}

// ServiceConfig carries the deployment-level analytics settings.
type ServiceConfig struct {
	BaseCapital      float64
	BaseCapitalStart time.Time

	// IncludePrestartCounts keeps trades before BaseCapitalStart in the
	// "all" range's trade count while excluding them from amount stats.
	IncludePrestartCounts bool
}

// Service orchestrates the analytics pipeline: window resolution, matching,
// aggregation, expectation and comparison. Every entry point takes a fresh
// snapshot from the trade reader and is safe for concurrent use.
type Service struct {
	trades      TradeReader
	actual      *ActualCalculator
	expectation *ExpectationCalculator
	analyzer    *Analyzer
	matcher     *matching.Matcher
	aggregator  *holdings.Aggregator
	clock       domain.Clock
	cfg         ServiceConfig
	log         zerolog.Logger
}

// NewService creates the analytics service.
func NewService(
	trades TradeReader,
	actual *ActualCalculator,
	expectation *ExpectationCalculator,
	analyzer *Analyzer,
	matcher *matching.Matcher,
	aggregator *holdings.Aggregator,
	clock domain.Clock,
	cfg ServiceConfig,
	log zerolog.Logger,
) *Service {
	return &Service{
		trades:      trades,
		actual:      actual,
		expectation: expectation,
		analyzer:    analyzer,
		matcher:     matcher,
		aggregator:  aggregator,
		clock:       clock,
		cfg:         cfg,
		log:         log.With().Str("service", "analytics").Logger(),
	}
}

// ComparisonReport computes the full actual-vs-expectation report for one
// time range.
func (s *Service) ComparisonReport(ctx context.Context, timeRange domain.TimeRange) (Report, error) {
	now := s.clock.Now()
	start, end, err := timeRange.Window(now, s.cfg.BaseCapitalStart)
	if err != nil {
		return Report{}, err
	}

	trades, err := s.trades.ListBetween(start, end)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read trades: %w", err)
	}

	actual, summary, err := s.actual.Compute(ctx, ActualInput{
		Trades:      trades,
		BaseCapital: s.cfg.BaseCapital,
		WindowStart: start,
		WindowEnd:   end,
	})
	if err != nil {
		return Report{}, err
	}

	expected, err := s.expectation.Compute(s.cfg.BaseCapital)
	if err != nil {
		return Report{}, err
	}

	tradeCount := len(trades)
	if timeRange == domain.RangeAll && s.cfg.IncludePrestartCounts {
		if total, err := s.trades.CountAll(); err == nil {
			tradeCount = total
		} else {
			s.log.Warn().Err(err).Msg("Failed to count pre-start trades, using window count")
		}
	}

	report := Report{
		TimeRange: TimeRangeInfo{
			Range:      timeRange,
			RangeName:  timeRange.Name(),
			StartDate:  start,
			EndDate:    end,
			TradeCount: tradeCount,
		},
		Actual:      actual,
		Expectation: expected,
		Comparisons: s.analyzer.Compare(actual, expected),
		Holdings:    summary,
	}

	s.log.Info().
		Str("range", timeRange.String()).
		Int("trades", tradeCount).
		Float64("total_profit", actual.TotalProfit).
		Msg("Comparison report computed")

	return report, nil
}

// Expectation returns the benchmark metrics for the configured base capital.
func (s *Service) Expectation() (ExpectationMetrics, error) {
	return s.expectation.Compute(s.cfg.BaseCapital)
}

// CurrentHoldings matches the whole trade history and marks the open lots to
// market.
func (s *Service) CurrentHoldings(ctx context.Context) (holdings.Summary, error) {
	trades, err := s.trades.ListAll()
	if err != nil {
		return holdings.Summary{}, fmt.Errorf("failed to read trades: %w", err)
	}

	matched, err := s.matcher.Match(trades)
	if err != nil {
		return holdings.Summary{}, err
	}

	return s.aggregator.Aggregate(ctx, matched.OpenLots), nil
}

// OpenSymbols lists the instruments that currently have open lots. Used by
// the quote refresh job to know what to keep warm.
func (s *Service) OpenSymbols() ([]string, error) {
	trades, err := s.trades.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read trades: %w", err)
	}

	matched, err := s.matcher.Match(trades)
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(matched.OpenLots))
	for symbol := range matched.OpenLots {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols, nil
}
