// Package condition implements the predicate layer of the engine: atomic
// conditions over one bar of market context, composed with and/or/not
// combinators. Conditions are side-effect-free; missing or non-numeric data
// makes a condition report not-triggered instead of failing.
package condition

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/gfob-engine/internal/types"
	"github.com/shopspring/decimal"
)

// Context carries the read-only per-bar data a condition may inspect.
type Context struct {
	Candle     types.Candle
	Indicators *types.IndicatorSnapshot
	Timestamp  time.Time
	BarIndex   int
	// Holding is set when the condition is evaluated against an open
	// holding, as exit conditions are. Entry conditions see None.
	Holding optional.Option[types.Holding]
}

// Result is the outcome of one condition evaluation. A non-triggered result
// carries no price, reason, or metadata.
type Result struct {
	Triggered     bool
	Price         optional.Option[decimal.Decimal]
	Reason        string
	ConditionName string
	Metadata      map[string]string
}

// Metadata keys used by the built-in condition families.
const (
	MetadataKeyPhase        = "phase"
	MetadataKeyPredictedEma = "predicted_ema"
)

// Condition is a predicate over one bar of market context. Evaluate must not
// mutate the context and must not panic on missing data.
type Condition interface {
	Evaluate(ctx Context) Result
	Name() string
}

// Triggered builds a triggered result for the given condition name.
func Triggered(name string, price optional.Option[decimal.Decimal], reason string) Result {
	return Result{
		Triggered:     true,
		Price:         price,
		Reason:        reason,
		ConditionName: name,
	}
}

// NotTriggered builds an empty non-triggered result for the given name.
func NotTriggered(name string) Result {
	return Result{
		Triggered:     false,
		ConditionName: name,
	}
}
