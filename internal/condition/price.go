package condition

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/gfob-engine/internal/types"
	"github.com/shopspring/decimal"
)

// Direction selects which side of a price level a condition watches.
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// PriceTouchesLevel triggers when the bar's range reaches a fixed price
// level: direction below compares the bar's low against the level, direction
// above compares the bar's high.
type PriceTouchesLevel struct {
	level     decimal.Decimal
	direction Direction
	strict    bool
}

func NewPriceTouchesLevel(level decimal.Decimal, direction Direction, strict bool) *PriceTouchesLevel {
	return &PriceTouchesLevel{
		level:     level,
		direction: direction,
		strict:    strict,
	}
}

func (p *PriceTouchesLevel) Name() string {
	return "price_touches_level"
}

func (p *PriceTouchesLevel) Evaluate(ctx Context) Result {
	if !p.level.IsPositive() || !ctx.Candle.IsValid() {
		return NotTriggered(p.Name())
	}

	switch p.direction {
	case DirectionBelow:
		touched := ctx.Candle.Low.LessThanOrEqual(p.level)
		if p.strict {
			touched = ctx.Candle.Low.LessThan(p.level)
		}

		if touched {
			return Triggered(p.Name(), optional.Some(p.level),
				fmt.Sprintf("low %s reached level %s from above", ctx.Candle.Low, p.level))
		}
	case DirectionAbove:
		touched := ctx.Candle.High.GreaterThanOrEqual(p.level)
		if p.strict {
			touched = ctx.Candle.High.GreaterThan(p.level)
		}

		if touched {
			return Triggered(p.Name(), optional.Some(p.level),
				fmt.Sprintf("high %s reached level %s from below", ctx.Candle.High, p.level))
		}
	}

	return NotTriggered(p.Name())
}

// PriceInRange triggers when an indicator value lies inside the bar's
// low..high range, both ends inclusive. The indicator value becomes the
// suggested price.
type PriceInRange struct {
	indicator types.IndicatorKey
}

func NewPriceInRange(indicator types.IndicatorKey) *PriceInRange {
	return &PriceInRange{indicator: indicator}
}

func (p *PriceInRange) Name() string {
	return "price_in_range"
}

func (p *PriceInRange) Evaluate(ctx Context) Result {
	v, ok := ctx.Indicators.Value(p.indicator)
	if !ok || !ctx.Candle.IsValid() {
		return NotTriggered(p.Name())
	}

	value := decimal.NewFromFloat(v)
	if value.GreaterThanOrEqual(ctx.Candle.Low) && value.LessThanOrEqual(ctx.Candle.High) {
		return Triggered(p.Name(), optional.Some(value),
			fmt.Sprintf("%s %s lies within bar range [%s, %s]",
				p.indicator, value, ctx.Candle.Low, ctx.Candle.High))
	}

	return NotTriggered(p.Name())
}

// PriceBelowMidLine triggers when the bar's low reaches the midpoint of two
// indicator values. The midpoint becomes the suggested price.
type PriceBelowMidLine struct {
	a      types.IndicatorKey
	b      types.IndicatorKey
	strict bool
}

func NewPriceBelowMidLine(a, b types.IndicatorKey, strict bool) *PriceBelowMidLine {
	return &PriceBelowMidLine{
		a:      a,
		b:      b,
		strict: strict,
	}
}

func (p *PriceBelowMidLine) Name() string {
	return "price_below_mid_line"
}

func (p *PriceBelowMidLine) Evaluate(ctx Context) Result {
	va, ok := ctx.Indicators.Value(p.a)
	if !ok {
		return NotTriggered(p.Name())
	}

	vb, ok := ctx.Indicators.Value(p.b)
	if !ok || !ctx.Candle.IsValid() {
		return NotTriggered(p.Name())
	}

	midValue := (va + vb) / 2
	if math.IsNaN(midValue) || math.IsInf(midValue, 0) {
		return NotTriggered(p.Name())
	}

	mid := decimal.NewFromFloat(midValue)

	below := ctx.Candle.Low.LessThanOrEqual(mid)
	if p.strict {
		below = ctx.Candle.Low.LessThan(mid)
	}

	if below {
		return Triggered(p.Name(), optional.Some(mid),
			fmt.Sprintf("low %s is below midline %s of %s and %s",
				ctx.Candle.Low, mid, p.a, p.b))
	}

	return NotTriggered(p.Name())
}
