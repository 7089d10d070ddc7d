package condition

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// StopLoss triggers when the bar's low reaches the stop level of the holding
// in context: entry price reduced by the configured loss fraction. The stop
// level becomes the suggested price. Without a holding in context it never
// triggers.
type StopLoss struct {
	fraction decimal.Decimal
}

// NewStopLoss builds a stop-loss condition. fraction is the loss fraction
// below the entry price, e.g. 0.05 places the stop 5% under entry.
func NewStopLoss(fraction decimal.Decimal) *StopLoss {
	return &StopLoss{fraction: fraction}
}

func (s *StopLoss) Name() string {
	return "stop_loss"
}

func (s *StopLoss) Evaluate(ctx Context) Result {
	if ctx.Holding.IsNone() {
		return NotTriggered(s.Name())
	}

	holding := ctx.Holding.Unwrap()
	if !holding.EntryPrice.IsPositive() || !ctx.Candle.IsValid() {
		return NotTriggered(s.Name())
	}

	stop := holding.EntryPrice.Mul(decimal.NewFromInt(1).Sub(s.fraction))
	if !stop.IsPositive() {
		return NotTriggered(s.Name())
	}

	if ctx.Candle.Low.LessThanOrEqual(stop) {
		return Triggered(s.Name(), optional.Some(stop),
			fmt.Sprintf("low %s reached stop %s (entry %s)",
				ctx.Candle.Low, stop, holding.EntryPrice))
	}

	return NotTriggered(s.Name())
}

// MaxHoldingBars triggers once the holding in context has been open for the
// configured number of bars. It carries no price; the caller decides how to
// exit. Without a holding in context it never triggers.
type MaxHoldingBars struct {
	bars int
}

func NewMaxHoldingBars(bars int) *MaxHoldingBars {
	return &MaxHoldingBars{bars: bars}
}

func (m *MaxHoldingBars) Name() string {
	return "max_holding_bars"
}

func (m *MaxHoldingBars) Evaluate(ctx Context) Result {
	if ctx.Holding.IsNone() {
		return NotTriggered(m.Name())
	}

	holding := ctx.Holding.Unwrap()

	held := ctx.BarIndex - holding.EntryBarIndex
	if held < m.bars {
		return NotTriggered(m.Name())
	}

	return Triggered(m.Name(), optional.None[decimal.Decimal](),
		fmt.Sprintf("held for %d bars, limit is %d", held, m.bars))
}
