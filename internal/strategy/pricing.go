package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/gfob-engine/internal/condition"
	"github.com/rxtech-lab/gfob-engine/internal/types"
)

// CalculateOrderPrice derives a buy limit price below the base:
// base * (1 - discount). A zero discount returns the base unchanged.
func CalculateOrderPrice(base, discount decimal.Decimal) decimal.Decimal {
	return base.Mul(decimal.NewFromInt(1).Sub(discount))
}

// CalculateSellPrice picks the sell limit price for the given cycle phase:
// bear phases target the ema25 mean, bull phases stretch to the p95 band,
// anything else (consolidation included) takes the midpoint of the two.
func CalculateSellPrice(phase types.CyclePhase, ema25, p95 decimal.Decimal) decimal.Decimal {
	switch phase {
	case types.CyclePhaseBearStrong, types.CyclePhaseBearWarning:
		return ema25
	case types.CyclePhaseBullStrong, types.CyclePhaseBullWarning:
		return p95
	default:
		return ema25.Add(p95).Div(decimal.NewFromInt(2))
	}
}

// SellLimitPrice resolves the limit price for a triggered exit rule against
// the bar it triggered on. Every mode falls back to the bar close when its
// inputs are unavailable, so a triggered exit always yields a usable price.
func SellLimitPrice(rule ExitRule, result condition.Result, ctx condition.Context) decimal.Decimal {
	switch rule.PriceMode {
	case PriceModeResult:
		if result.Price.IsSome() {
			return result.Price.Unwrap()
		}
		return ctx.Candle.Close
	case PriceModeSellRule:
		ema25, okEma := ctx.Indicators.Value(types.IndicatorKeyEMA25)
		p95, okP95 := ctx.Indicators.Value(types.IndicatorKeyP95)
		if !okEma || !okP95 {
			return ctx.Candle.Close
		}
		// A missing phase falls through to the midpoint rule.
		phase, _ := ctx.Indicators.CyclePhase()
		return CalculateSellPrice(phase, decimal.NewFromFloat(ema25), decimal.NewFromFloat(p95))
	default:
		return ctx.Candle.Close
	}
}
