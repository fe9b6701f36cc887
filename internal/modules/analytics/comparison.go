package analytics

import "math"

// Thresholds holds the per-metric neutral bands. Rate bands are absolute
// percentage points, the amount band is in currency units, and the
// holding-days band is a share of the expected value.
type Thresholds struct {
	ReturnRateBand     float64
	SuccessRateBand    float64
	ReturnAmountBand   float64
	HoldingDaysBandPct float64
}

// DefaultThresholds returns the stock neutral bands.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ReturnRateBand:     0.05,
		SuccessRateBand:    0.05,
		ReturnAmountBand:   10_000,
		HoldingDaysBandPct: 0.20,
	}
}

// Analyzer classifies actual-vs-expected diffs per metric. Each metric is
// compared independently against its own band.
type Analyzer struct {
	thresholds Thresholds
}

// NewAnalyzer creates a comparison analyzer.
func NewAnalyzer(thresholds Thresholds) *Analyzer {
	return &Analyzer{thresholds: thresholds}
}

// Compare produces one ComparisonResult per metric. The actual return amount
// is the total window profit; its expectation is the table evaluated against
// the base capital.
func (a *Analyzer) Compare(actual ActualMetrics, expected ExpectationMetrics) []ComparisonResult {
	holdingDaysBand := a.thresholds.HoldingDaysBandPct * math.Abs(expected.HoldingDays)

	return []ComparisonResult{
		a.compare("return_rate", actual.ReturnRate, expected.ReturnRate, a.thresholds.ReturnRateBand),
		a.compare("return_amount", actual.TotalProfit, expected.ReturnAmount, a.thresholds.ReturnAmountBand),
		a.compare("holding_days", actual.HoldingDays, expected.HoldingDays, holdingDaysBand),
		a.compare("success_rate", actual.SuccessRate, expected.SuccessRate, a.thresholds.SuccessRateBand),
	}
}

// compare classifies one metric. The boundary is inclusive on the neutral
// side: |diff| == band is still neutral.
func (a *Analyzer) compare(metric string, actual, expected, band float64) ComparisonResult {
	diff := actual - expected

	result := ComparisonResult{
		Metric:   metric,
		Actual:   actual,
		Expected: expected,
		Diff:     diff,
	}
	if expected != 0 {
		result.PercentDiff = diff / math.Abs(expected) * 100
	}

	switch {
	case math.Abs(diff) <= band:
		result.Status = StatusNeutral
		result.Color = ColorWarning
		result.Message = MessageNear
	case diff > 0:
		result.Status = StatusPositive
		result.Color = ColorSuccess
		result.Message = MessageAbove
	default:
		result.Status = StatusNegative
		result.Color = ColorDanger
		result.Message = MessageBelow
	}

	return result
}
