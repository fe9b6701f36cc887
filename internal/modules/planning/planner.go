package planning

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tmarkov/tradebook/internal/domain"
)

const (
	// sellRatioTolerance absorbs rounding when sell ratios are entered as
	// percentages (33.33 three times).
	sellRatioTolerance = 1e-6

	// ratioConsistencyTolerance bounds the allowed disagreement between a
	// supplied profit_ratio and the one derived from target_price.
	ratioConsistencyTolerance = 1e-4
)

// Planner validates batch profit-taking plans. It is stateless and safe for
// concurrent use.
type Planner struct {
	log zerolog.Logger
}

// NewPlanner creates a new planner.
func NewPlanner(log zerolog.Logger) *Planner {
	return &Planner{
		log: log.With().Str("service", "planning").Logger(),
	}
}

// Validate checks a plan and resolves every target to its canonical form.
// Field errors make the plan invalid; a non-ascending price sequence only
// yields a warning. Ratio inputs are normalized (30 and 0.30 mean the same
// thing) before any check runs.
func (p *Planner) Validate(req PlanRequest) PlanResult {
	result := PlanResult{
		PlanID:   uuid.New().String(),
		Errors:   []FieldError{},
		Warnings: []string{},
	}

	if req.BuyPrice <= 0 {
		result.addError("buy_price", "buy price must be positive")
		return result
	}
	if len(req.Targets) == 0 {
		result.addError("targets", "at least one target is required")
		return result
	}

	totalSell := 0.0
	prevPrice := 0.0
	ordered := true

	for i, t := range req.Targets {
		detail, errs := resolveTarget(req.BuyPrice, i, t)
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			continue
		}

		totalSell += float64(detail.SellRatio)
		result.ExpectedProfitRatio += detail.ExpectedProfitShare
		result.Targets = append(result.Targets, detail)

		if detail.TargetPrice < prevPrice {
			ordered = false
		}
		prevPrice = detail.TargetPrice
	}

	result.TotalSellRatio = totalSell
	if totalSell > 1+sellRatioTolerance {
		result.addError("sell_ratio",
			fmt.Sprintf("total sell ratio %.4f exceeds 100%% by %.4f", totalSell, totalSell-1))
	}
	if !ordered {
		result.Warnings = append(result.Warnings, "target prices are not in ascending order")
	}

	result.IsValid = len(result.Errors) == 0

	p.log.Debug().
		Str("plan_id", result.PlanID).
		Bool("is_valid", result.IsValid).
		Int("targets", len(req.Targets)).
		Float64("expected_profit_ratio", result.ExpectedProfitRatio).
		Msg("Plan validated")

	return result
}

// resolveTarget normalizes one target's ratios and reconciles target_price
// with profit_ratio, deriving whichever is missing.
func resolveTarget(buyPrice float64, index int, t TargetInput) (TargetDetail, []FieldError) {
	var errs []FieldError
	field := func(name string) string { return fmt.Sprintf("targets[%d].%s", index, name) }

	sellRatio, err := domain.NormalizeRatio(t.SellRatio)
	if err != nil {
		errs = append(errs, FieldError{Field: field("sell_ratio"), Message: err.Error()})
	} else if sellRatio <= 0 {
		errs = append(errs, FieldError{Field: field("sell_ratio"), Message: "sell ratio must be positive"})
	}

	hasPrice := t.TargetPrice != 0
	hasRatio := t.ProfitRatio != 0

	var targetPrice float64
	var profitRatio domain.Fraction

	switch {
	case !hasPrice && !hasRatio:
		errs = append(errs, FieldError{Field: field("target_price"), Message: "either target_price or profit_ratio is required"})

	case hasPrice && !hasRatio:
		if t.TargetPrice <= 0 {
			errs = append(errs, FieldError{Field: field("target_price"), Message: "target price must be positive"})
			break
		}
		targetPrice = t.TargetPrice
		profitRatio = domain.Fraction(t.TargetPrice/buyPrice - 1)

	case !hasPrice && hasRatio:
		profitRatio, err = domain.NormalizeRatio(t.ProfitRatio)
		if err != nil {
			errs = append(errs, FieldError{Field: field("profit_ratio"), Message: err.Error()})
			break
		}
		targetPrice = buyPrice * (1 + float64(profitRatio))

	default:
		if t.TargetPrice <= 0 {
			errs = append(errs, FieldError{Field: field("target_price"), Message: "target price must be positive"})
			break
		}
		profitRatio, err = domain.NormalizeRatio(t.ProfitRatio)
		if err != nil {
			errs = append(errs, FieldError{Field: field("profit_ratio"), Message: err.Error()})
			break
		}
		derived := t.TargetPrice/buyPrice - 1
		if math.Abs(derived-float64(profitRatio)) > ratioConsistencyTolerance {
			errs = append(errs, FieldError{
				Field:   field("profit_ratio"),
				Message: fmt.Sprintf("profit ratio %.4f does not match target price %.2f (implies %.4f)", float64(profitRatio), t.TargetPrice, derived),
			})
			break
		}
		targetPrice = t.TargetPrice
	}

	if len(errs) > 0 {
		return TargetDetail{}, errs
	}

	return TargetDetail{
		Order:               index + 1,
		TargetPrice:         targetPrice,
		ProfitRatio:         profitRatio,
		SellRatio:           sellRatio,
		ExpectedProfitShare: float64(sellRatio) * float64(profitRatio),
	}, nil
}

func (r *PlanResult) addError(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
	r.IsValid = false
}
