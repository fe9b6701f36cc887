package planning

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarkov/tradebook/internal/domain"
)

func newPlanner() *Planner {
	return NewPlanner(zerolog.Nop())
}

func TestValidateOversoldPlanFails(t *testing.T) {
	p := newPlanner()

	// 30% + 40% + 40% = 110%.
	result := p.Validate(PlanRequest{
		BuyPrice: 100,
		Targets: []TargetInput{
			{ProfitRatio: 10, SellRatio: 30},
			{ProfitRatio: 20, SellRatio: 40},
			{ProfitRatio: 30, SellRatio: 40},
		},
	})

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "sell_ratio", result.Errors[0].Field)
	assert.Contains(t, result.Errors[0].Message, "exceeds 100%")
	assert.InDelta(t, 1.10, result.TotalSellRatio, 1e-9)
}

func TestValidateBlendedRatio(t *testing.T) {
	p := newPlanner()

	result := p.Validate(PlanRequest{
		BuyPrice: 100,
		Targets: []TargetInput{
			{ProfitRatio: 10, SellRatio: 30},
			{ProfitRatio: 20, SellRatio: 40},
			{ProfitRatio: 30, SellRatio: 30},
		},
	})

	require.True(t, result.IsValid, "errors: %v", result.Errors)
	assert.Empty(t, result.Warnings)
	assert.InDelta(t, 0.30*0.10+0.40*0.20+0.30*0.30, result.ExpectedProfitRatio, 1e-9)
	assert.NotEmpty(t, result.PlanID)

	require.Len(t, result.Targets, 3)
	assert.Equal(t, 1, result.Targets[0].Order)
	assert.InDelta(t, 110, result.Targets[0].TargetPrice, 1e-9)
	assert.InDelta(t, 0.10, float64(result.Targets[0].ProfitRatio), 1e-9)
	assert.InDelta(t, 0.30, float64(result.Targets[0].SellRatio), 1e-9)
}

func TestValidateMixedRatioForms(t *testing.T) {
	p := newPlanner()

	// Percent and fraction forms of the same plan.
	percent := p.Validate(PlanRequest{
		BuyPrice: 100,
		Targets:  []TargetInput{{ProfitRatio: 30, SellRatio: 50}, {ProfitRatio: 50, SellRatio: 50}},
	})
	fraction := p.Validate(PlanRequest{
		BuyPrice: 100,
		Targets:  []TargetInput{{ProfitRatio: 0.30, SellRatio: 0.50}, {ProfitRatio: 0.50, SellRatio: 0.50}},
	})

	require.True(t, percent.IsValid)
	require.True(t, fraction.IsValid)
	assert.InDelta(t, percent.ExpectedProfitRatio, fraction.ExpectedProfitRatio, 1e-9)
	assert.InDelta(t, percent.Targets[0].TargetPrice, fraction.Targets[0].TargetPrice, 1e-9)
}

func TestValidateDerivesMissingSide(t *testing.T) {
	p := newPlanner()

	result := p.Validate(PlanRequest{
		BuyPrice: 50,
		Targets: []TargetInput{
			{TargetPrice: 55, SellRatio: 0.5},  // ratio derived: 0.10
			{ProfitRatio: 0.20, SellRatio: 0.5}, // price derived: 60
		},
	})

	require.True(t, result.IsValid, "errors: %v", result.Errors)
	assert.InDelta(t, 0.10, float64(result.Targets[0].ProfitRatio), 1e-9)
	assert.InDelta(t, 60, result.Targets[1].TargetPrice, 1e-9)
}

func TestValidateInconsistentPriceAndRatio(t *testing.T) {
	p := newPlanner()

	// 55/50 - 1 = 0.10, not 0.30.
	result := p.Validate(PlanRequest{
		BuyPrice: 50,
		Targets:  []TargetInput{{TargetPrice: 55, ProfitRatio: 0.30, SellRatio: 1}},
	})

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "targets[0].profit_ratio", result.Errors[0].Field)

	// Consistent pair passes.
	result = p.Validate(PlanRequest{
		BuyPrice: 50,
		Targets:  []TargetInput{{TargetPrice: 55, ProfitRatio: 0.10, SellRatio: 1}},
	})
	assert.True(t, result.IsValid)
}

func TestValidateNonAscendingPricesWarns(t *testing.T) {
	p := newPlanner()

	result := p.Validate(PlanRequest{
		BuyPrice: 100,
		Targets: []TargetInput{
			{ProfitRatio: 0.30, SellRatio: 0.5},
			{ProfitRatio: 0.10, SellRatio: 0.5},
		},
	})

	assert.True(t, result.IsValid, "ordering is a warning, not an error")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "ascending")
}

func TestValidateRejectsBadInputs(t *testing.T) {
	p := newPlanner()

	tests := []struct {
		name  string
		req   PlanRequest
		field string
	}{
		{
			"non-positive buy price",
			PlanRequest{BuyPrice: 0, Targets: []TargetInput{{ProfitRatio: 0.1, SellRatio: 1}}},
			"buy_price",
		},
		{
			"no targets",
			PlanRequest{BuyPrice: 100},
			"targets",
		},
		{
			"zero sell ratio",
			PlanRequest{BuyPrice: 100, Targets: []TargetInput{{ProfitRatio: 0.1}}},
			"targets[0].sell_ratio",
		},
		{
			"sell ratio above 100 percent",
			PlanRequest{BuyPrice: 100, Targets: []TargetInput{{ProfitRatio: 0.1, SellRatio: 130}}},
			"targets[0].sell_ratio",
		},
		{
			"profit ratio above 100 percent",
			PlanRequest{BuyPrice: 100, Targets: []TargetInput{{ProfitRatio: 130, SellRatio: 1}}},
			"targets[0].profit_ratio",
		},
		{
			"neither price nor ratio",
			PlanRequest{BuyPrice: 100, Targets: []TargetInput{{SellRatio: 1}}},
			"targets[0].target_price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.Validate(tt.req)
			assert.False(t, result.IsValid)
			require.NotEmpty(t, result.Errors)
			assert.Equal(t, tt.field, result.Errors[0].Field)
		})
	}
}

func TestValidateSellRatioSumTolerance(t *testing.T) {
	p := newPlanner()

	// Three thirds entered as percentages overshoot 1.0 by well under the
	// tolerance and must pass.
	result := p.Validate(PlanRequest{
		BuyPrice: 100,
		Targets: []TargetInput{
			{ProfitRatio: 0.1, SellRatio: 33.3333334},
			{ProfitRatio: 0.2, SellRatio: 33.3333333},
			{ProfitRatio: 0.3, SellRatio: 33.3333333},
		},
	})
	assert.True(t, result.IsValid, "errors: %v", result.Errors)
}

func TestValidateFractionTypeFlowsThrough(t *testing.T) {
	p := newPlanner()

	result := p.Validate(PlanRequest{
		BuyPrice: 100,
		Targets:  []TargetInput{{ProfitRatio: 30, SellRatio: 100}},
	})

	require.True(t, result.IsValid)
	assert.Equal(t, domain.Fraction(1), result.Targets[0].SellRatio)
	assert.InDelta(t, 0.30, float64(result.Targets[0].ProfitRatio), 1e-9)
}
