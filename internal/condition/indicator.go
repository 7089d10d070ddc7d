package condition

import (
	"fmt"
	"math"
	"strconv"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/gfob-engine/internal/types"
	"github.com/shopspring/decimal"
)

// BetaNegative triggers when the beta indicator is strictly negative.
// A beta of exactly zero triggers neither this nor BetaPositive.
type BetaNegative struct{}

func NewBetaNegative() *BetaNegative {
	return &BetaNegative{}
}

func (b *BetaNegative) Name() string {
	return "beta_negative"
}

func (b *BetaNegative) Evaluate(ctx Context) Result {
	v, ok := ctx.Indicators.Value(types.IndicatorKeyBeta)
	if !ok {
		return NotTriggered(b.Name())
	}

	if v < 0 {
		return Triggered(b.Name(), optional.None[decimal.Decimal](),
			fmt.Sprintf("beta %.6f is negative", v))
	}

	return NotTriggered(b.Name())
}

// BetaPositive triggers when the beta indicator is strictly positive.
type BetaPositive struct{}

func NewBetaPositive() *BetaPositive {
	return &BetaPositive{}
}

func (b *BetaPositive) Name() string {
	return "beta_positive"
}

func (b *BetaPositive) Evaluate(ctx Context) Result {
	v, ok := ctx.Indicators.Value(types.IndicatorKeyBeta)
	if !ok {
		return NotTriggered(b.Name())
	}

	if v > 0 {
		return Triggered(b.Name(), optional.None[decimal.Decimal](),
			fmt.Sprintf("beta %.6f is positive", v))
	}

	return NotTriggered(b.Name())
}

// FutureEmaPrediction extrapolates the primary EMA by beta over a number of
// periods and compares the predicted value against the bar's close.
type FutureEmaPrediction struct {
	periods    int
	aboveClose bool
}

// NewFutureEmaPrediction builds the predictor. With aboveClose true the
// condition triggers when the predicted EMA lies strictly above the close,
// otherwise strictly below.
func NewFutureEmaPrediction(periods int, aboveClose bool) *FutureEmaPrediction {
	return &FutureEmaPrediction{
		periods:    periods,
		aboveClose: aboveClose,
	}
}

func (f *FutureEmaPrediction) Name() string {
	return "future_ema_prediction"
}

func (f *FutureEmaPrediction) Evaluate(ctx Context) Result {
	ema, ok := ctx.Indicators.Value(types.IndicatorKeyEMA25)
	if !ok {
		return NotTriggered(f.Name())
	}

	beta, ok := ctx.Indicators.Value(types.IndicatorKeyBeta)
	if !ok || !ctx.Candle.IsValid() {
		return NotTriggered(f.Name())
	}

	predicted := ema + beta*float64(f.periods)
	if math.IsNaN(predicted) || math.IsInf(predicted, 0) {
		return NotTriggered(f.Name())
	}

	closePrice := ctx.Candle.Close.InexactFloat64()

	triggered := predicted > closePrice
	if !f.aboveClose {
		triggered = predicted < closePrice
	}

	if !triggered {
		return NotTriggered(f.Name())
	}

	relation := "above"
	if !f.aboveClose {
		relation = "below"
	}

	result := Triggered(f.Name(), optional.None[decimal.Decimal](),
		fmt.Sprintf("ema predicted %d periods ahead is %.4f, %s close %.4f",
			f.periods, predicted, relation, closePrice))
	result.Metadata = map[string]string{
		MetadataKeyPredictedEma: strconv.FormatFloat(predicted, 'f', -1, 64),
	}

	return result
}

// IndicatorLessThan triggers when indicator a is less than indicator b.
type IndicatorLessThan struct {
	a      types.IndicatorKey
	b      types.IndicatorKey
	strict bool
}

func NewIndicatorLessThan(a, b types.IndicatorKey, strict bool) *IndicatorLessThan {
	return &IndicatorLessThan{
		a:      a,
		b:      b,
		strict: strict,
	}
}

func (i *IndicatorLessThan) Name() string {
	return "indicator_less_than"
}

func (i *IndicatorLessThan) Evaluate(ctx Context) Result {
	va, ok := ctx.Indicators.Value(i.a)
	if !ok {
		return NotTriggered(i.Name())
	}

	vb, ok := ctx.Indicators.Value(i.b)
	if !ok {
		return NotTriggered(i.Name())
	}

	less := va <= vb
	if i.strict {
		less = va < vb
	}

	if less {
		return Triggered(i.Name(), optional.None[decimal.Decimal](),
			fmt.Sprintf("%s %.4f is less than %s %.4f", i.a, va, i.b, vb))
	}

	return NotTriggered(i.Name())
}

// IndicatorBelowThreshold triggers when an indicator value is below a fixed
// threshold.
type IndicatorBelowThreshold struct {
	indicator types.IndicatorKey
	threshold float64
	strict    bool
}

func NewIndicatorBelowThreshold(indicator types.IndicatorKey, threshold float64, strict bool) *IndicatorBelowThreshold {
	return &IndicatorBelowThreshold{
		indicator: indicator,
		threshold: threshold,
		strict:    strict,
	}
}

func (i *IndicatorBelowThreshold) Name() string {
	return "indicator_below_threshold"
}

func (i *IndicatorBelowThreshold) Evaluate(ctx Context) Result {
	v, ok := ctx.Indicators.Value(i.indicator)
	if !ok {
		return NotTriggered(i.Name())
	}

	below := v <= i.threshold
	if i.strict {
		below = v < i.threshold
	}

	if below {
		return Triggered(i.Name(), optional.None[decimal.Decimal](),
			fmt.Sprintf("%s %.4f is below threshold %.4f", i.indicator, v, i.threshold))
	}

	return NotTriggered(i.Name())
}

// IndicatorAboveThreshold triggers when an indicator value is above a fixed
// threshold.
type IndicatorAboveThreshold struct {
	indicator types.IndicatorKey
	threshold float64
	strict    bool
}

func NewIndicatorAboveThreshold(indicator types.IndicatorKey, threshold float64, strict bool) *IndicatorAboveThreshold {
	return &IndicatorAboveThreshold{
		indicator: indicator,
		threshold: threshold,
		strict:    strict,
	}
}

func (i *IndicatorAboveThreshold) Name() string {
	return "indicator_above_threshold"
}

func (i *IndicatorAboveThreshold) Evaluate(ctx Context) Result {
	v, ok := ctx.Indicators.Value(i.indicator)
	if !ok {
		return NotTriggered(i.Name())
	}

	above := v >= i.threshold
	if i.strict {
		above = v > i.threshold
	}

	if above {
		return Triggered(i.Name(), optional.None[decimal.Decimal](),
			fmt.Sprintf("%s %.4f is above threshold %.4f", i.indicator, v, i.threshold))
	}

	return NotTriggered(i.Name())
}
