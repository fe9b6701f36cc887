package planning

import (
	"github.com/tmarkov/tradebook/internal/domain"
)

// TargetInput is one partial profit-taking step as submitted by the caller.
// Either TargetPrice or ProfitRatio must be set; the other is derived from
// the buy price. Ratios may arrive as percentages (30) or fractions (0.30).
type TargetInput struct {
	TargetPrice float64 `json:"target_price,omitempty"`
	ProfitRatio float64 `json:"profit_ratio,omitempty"`
	SellRatio   float64 `json:"sell_ratio"`
}

// PlanRequest is a batch profit-taking plan to validate.
type PlanRequest struct {
	BuyPrice float64       `json:"buy_price"`
	Targets  []TargetInput `json:"targets"`
}

// TargetDetail is the fully resolved form of one target after normalization
// and derivation.
type TargetDetail struct {
	Order       int             `json:"order"`
	TargetPrice float64         `json:"target_price"`
	ProfitRatio domain.Fraction `json:"profit_ratio"`
	SellRatio   domain.Fraction `json:"sell_ratio"`

	// ExpectedProfitShare is this target's contribution to the blended
	// plan return: sell_ratio * profit_ratio.
	ExpectedProfitShare float64 `json:"expected_profit_share"`
}

// FieldError names the offending field alongside a human-readable message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// PlanResult is the outcome of validating a plan. Errors make the plan
// invalid; warnings do not.
type PlanResult struct {
	PlanID              string        `json:"plan_id"`
	IsValid             bool          `json:"is_valid"`
	Errors              []FieldError  `json:"errors"`
	Warnings            []string      `json:"warnings"`
	ExpectedProfitRatio float64       `json:"expected_profit_ratio"`
	TotalSellRatio      float64       `json:"total_sell_ratio"`
	Targets             []TargetDetail `json:"targets"`
}
