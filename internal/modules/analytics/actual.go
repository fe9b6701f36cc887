package analytics

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/tmarkov/tradebook/internal/domain"
	"github.com/tmarkov/tradebook/internal/modules/holdings"
	"github.com/tmarkov/tradebook/internal/modules/matching"
)

// ActualCalculator computes realized and unrealized performance for a window.
// It takes an explicit trade snapshot and retains no state between calls.
type ActualCalculator struct {
	matcher    *matching.Matcher
	aggregator *holdings.Aggregator
	log        zerolog.Logger
}

// NewActualCalculator creates an actual-metrics calculator.
func NewActualCalculator(matcher *matching.Matcher, aggregator *holdings.Aggregator, log zerolog.Logger) *ActualCalculator {
	return &ActualCalculator{
		matcher:    matcher,
		aggregator: aggregator,
		log:        log.With().Str("component", "actual_metrics").Logger(),
	}
}

// ActualInput is one computation request.
type ActualInput struct {
	Trades      []domain.Trade
	BaseCapital float64
	WindowStart time.Time
	WindowEnd   time.Time
}

// Compute restricts the trades to [WindowStart, WindowEnd), matches them, and
// marks the remaining open lots to market. Positions opened inside the window
// contribute unrealized profit; closed slices contribute realized profit and
// the quantity-weighted holding days.
func (c *ActualCalculator) Compute(ctx context.Context, in ActualInput) (ActualMetrics, holdings.Summary, error) {
	if in.BaseCapital <= 0 {
		return ActualMetrics{}, holdings.Summary{}, domain.NewValidationError("base_capital",
			"base capital must be positive, got %v", in.BaseCapital)
	}

	windowed := filterWindow(in.Trades, in.WindowStart, in.WindowEnd)

	matched, err := c.matcher.Match(windowed)
	if err != nil {
		return ActualMetrics{}, holdings.Summary{}, err
	}

	summary := c.aggregator.Aggregate(ctx, matched.OpenLots)

	var metrics ActualMetrics
	metrics.CompletedCount = len(matched.Completed)

	days := make([]float64, 0, len(matched.Completed))
	weights := make([]float64, 0, len(matched.Completed))
	for _, completed := range matched.Completed {
		metrics.RealizedProfit += completed.RealizedProfit
		if completed.RealizedProfit > 0 {
			metrics.WinCount++
		}
		days = append(days, float64(completed.HoldingDays))
		weights = append(weights, float64(completed.Quantity))
	}

	metrics.UnrealizedProfit = summary.TotalFloatingProfit
	metrics.TotalProfit = metrics.RealizedProfit + metrics.UnrealizedProfit
	metrics.ReturnRate = metrics.TotalProfit / in.BaseCapital

	if len(days) > 0 {
		metrics.HoldingDays = stat.Mean(days, weights)
	}
	if metrics.CompletedCount > 0 {
		metrics.SuccessRate = float64(metrics.WinCount) / float64(metrics.CompletedCount)
	}

	c.log.Debug().
		Int("window_trades", len(windowed)).
		Int("completed", metrics.CompletedCount).
		Float64("realized", metrics.RealizedProfit).
		Float64("unrealized", metrics.UnrealizedProfit).
		Msg("Computed actual metrics")

	return metrics, summary, nil
}

// filterWindow keeps trades with WindowStart <= ExecutedAt < WindowEnd.
func filterWindow(trades []domain.Trade, start, end time.Time) []domain.Trade {
	filtered := make([]domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t.ExecutedAt.Before(start) || !t.ExecutedAt.Before(end) {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}
