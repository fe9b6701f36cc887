package analytics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/tmarkov/tradebook/internal/domain"
)

// Outcome is one row of the expectation model: a hypothetical trade result
// with its probability.
type Outcome struct {
	Probability float64 `json:"probability"`
	ReturnRate  float64 `json:"return_rate"`
}

// probabilityTolerance bounds the allowed deviation of the probability sum
// from 1.0.
const probabilityTolerance = 1e-9

// DefaultOutcomes is the fixed probability table of discrete trade outcomes.
// Its probability-weighted return rate is 0.041.
func DefaultOutcomes() []Outcome {
	return []Outcome{
		{Probability: 0.10, ReturnRate: 0.20},
		{Probability: 0.10, ReturnRate: 0.15},
		{Probability: 0.15, ReturnRate: 0.10},
		{Probability: 0.15, ReturnRate: 0.05},
		{Probability: 0.10, ReturnRate: 0.02},
		{Probability: 0.20, ReturnRate: -0.03},
		{Probability: 0.15, ReturnRate: -0.05},
		{Probability: 0.05, ReturnRate: -0.10},
	}
}

// ExpectationCalculator evaluates the outcome table against a base capital.
// The holding-days and success-rate targets are reference constants for the
// trading discipline, independent of trade history.
type ExpectationCalculator struct {
	outcomes           []Outcome
	expectedReturnRate float64
	holdingDays        float64
	successRate        float64
}

// NewExpectationCalculator validates the outcome table (probabilities must
// sum to 1.0) and precomputes the expected return rate.
func NewExpectationCalculator(outcomes []Outcome, holdingDays, successRate float64) (*ExpectationCalculator, error) {
	if len(outcomes) == 0 {
		return nil, domain.NewValidationError("outcomes", "outcome table is empty")
	}

	probs := make([]float64, len(outcomes))
	rates := make([]float64, len(outcomes))
	for i, o := range outcomes {
		if o.Probability < 0 {
			return nil, domain.NewValidationError("outcomes", "outcome %d has negative probability %v", i, o.Probability)
		}
		probs[i] = o.Probability
		rates[i] = o.ReturnRate
	}

	if sum := floats.Sum(probs); math.Abs(sum-1.0) > probabilityTolerance {
		return nil, domain.NewValidationError("outcomes", "probabilities sum to %v, want 1.0", sum)
	}

	return &ExpectationCalculator{
		outcomes:           outcomes,
		expectedReturnRate: floats.Dot(probs, rates),
		holdingDays:        holdingDays,
		successRate:        successRate,
	}, nil
}

// ExpectedReturnRate returns the probability-weighted return rate of the table.
func (c *ExpectationCalculator) ExpectedReturnRate() float64 {
	return c.expectedReturnRate
}

// Outcomes returns the outcome table.
func (c *ExpectationCalculator) Outcomes() []Outcome {
	return c.outcomes
}

// Compute evaluates the table against baseCapital.
func (c *ExpectationCalculator) Compute(baseCapital float64) (ExpectationMetrics, error) {
	if baseCapital <= 0 {
		return ExpectationMetrics{}, domain.NewValidationError("base_capital",
			"base capital must be positive, got %v", baseCapital)
	}

	return ExpectationMetrics{
		ReturnRate:   c.expectedReturnRate,
		ReturnAmount: baseCapital * c.expectedReturnRate,
		HoldingDays:  c.holdingDays,
		SuccessRate:  c.successRate,
	}, nil
}
