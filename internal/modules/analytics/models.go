// Package analytics computes realized/unrealized performance for a time
// window and compares it against the probability-weighted expectation model.
package analytics

import (
	"time"

	"github.com/tmarkov/tradebook/internal/domain"
	"github.com/tmarkov/tradebook/internal/modules/holdings"
)

// ExpectationMetrics is the benchmark the journal is measured against.
type ExpectationMetrics struct {
	ReturnRate   float64 `json:"return_rate"`
	ReturnAmount float64 `json:"return_amount"`
	HoldingDays  float64 `json:"holding_days"`
	SuccessRate  float64 `json:"success_rate"`
}

// ActualMetrics is the realized performance over one window.
type ActualMetrics struct {
	RealizedProfit   float64 `json:"realized_profit"`
	UnrealizedProfit float64 `json:"unrealized_profit"`
	TotalProfit      float64 `json:"total_profit"`
	ReturnRate       float64 `json:"return_rate"`
	HoldingDays      float64 `json:"holding_days"` // Quantity-weighted, closed positions only
	SuccessRate      float64 `json:"success_rate"`
	CompletedCount   int     `json:"completed_count"`
	WinCount         int     `json:"win_count"`
}

// ComparisonStatus classifies one metric diff.
type ComparisonStatus string

const (
	StatusPositive ComparisonStatus = "positive"
	StatusNegative ComparisonStatus = "negative"
	StatusNeutral  ComparisonStatus = "neutral"
)

// Display colors and messages for each status.
const (
	ColorSuccess = "success"
	ColorDanger  = "danger"
	ColorWarning = "warning"

	MessageAbove = "exceeds expectation"
	MessageBelow = "below expectation"
	MessageNear  = "near expectation"
)

// ComparisonResult diffs one metric of Actual against Expectation.
type ComparisonResult struct {
	Metric      string           `json:"metric"`
	Actual      float64          `json:"actual"`
	Expected    float64          `json:"expected"`
	Diff        float64          `json:"diff"`
	PercentDiff float64          `json:"percent_diff"`
	Status      ComparisonStatus `json:"status"`
	Color       string           `json:"display_color"`
	Message     string           `json:"message"`
}

// TimeRangeInfo describes the window a report covers.
type TimeRangeInfo struct {
	Range      domain.TimeRange `json:"range"`
	RangeName  string           `json:"range_name"`
	StartDate  time.Time        `json:"start_date"`
	EndDate    time.Time        `json:"end_date"`
	TradeCount int              `json:"trade_count"`
}

// Report is the full actual-vs-expectation comparison for one window.
type Report struct {
	TimeRange   TimeRangeInfo      `json:"time_range"`
	Actual      ActualMetrics      `json:"actual"`
	Expectation ExpectationMetrics `json:"expectation"`
	Comparisons []ComparisonResult `json:"comparisons"`
	Holdings    holdings.Summary   `json:"holdings"`
}
