package condition

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/gfob-engine/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// stubCondition counts how often it was evaluated so tests can prove
// short-circuit behavior.
type stubCondition struct {
	name      string
	result    Result
	evaluated int
}

func (s *stubCondition) Evaluate(ctx Context) Result {
	s.evaluated++

	return s.result
}

func (s *stubCondition) Name() string {
	return s.name
}

func triggeredStub(name string, price float64, reason string) *stubCondition {
	return &stubCondition{
		name: name,
		result: Result{
			Triggered:     true,
			Price:         optional.Some(decimal.NewFromFloat(price)),
			Reason:        reason,
			ConditionName: name,
		},
	}
}

func notTriggeredStub(name string) *stubCondition {
	return &stubCondition{
		name:   name,
		result: NotTriggered(name),
	}
}

func testCandle(open, high, low, closePrice float64) types.Candle {
	return types.Candle{
		Time:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Symbol: "BTCUSDT",
		Open:   decimal.NewFromFloat(open),
		High:   decimal.NewFromFloat(high),
		Low:    decimal.NewFromFloat(low),
		Close:  decimal.NewFromFloat(closePrice),
		Volume: decimal.NewFromInt(100),
	}
}

func testContext(candle types.Candle, snapshot *types.IndicatorSnapshot) Context {
	return Context{
		Candle:     candle,
		Indicators: snapshot,
		Timestamp:  candle.Time,
		BarIndex:   10,
		Holding:    optional.None[types.Holding](),
	}
}

func TestAndShortCircuitsOnFirstFailure(t *testing.T) {
	first := notTriggeredStub("first")
	second := triggeredStub("second", 100, "second fired")
	third := triggeredStub("third", 101, "third fired")

	and := NewAnd(first, second, third)
	result := and.Evaluate(testContext(testCandle(100, 110, 95, 105), nil))

	assert.False(t, result.Triggered)
	assert.True(t, result.Price.IsNone())
	assert.Equal(t, 1, first.evaluated)
	assert.Equal(t, 0, second.evaluated)
	assert.Equal(t, 0, third.evaluated)
}

func TestAndStopsAtMiddleFailure(t *testing.T) {
	first := triggeredStub("first", 100, "first fired")
	second := notTriggeredStub("second")
	third := triggeredStub("third", 101, "third fired")

	and := NewAnd(first, second, third)
	result := and.Evaluate(testContext(testCandle(100, 110, 95, 105), nil))

	assert.False(t, result.Triggered)
	assert.Equal(t, 1, first.evaluated)
	assert.Equal(t, 1, second.evaluated)
	assert.Equal(t, 0, third.evaluated)
}

func TestAndPropagatesLastResult(t *testing.T) {
	first := triggeredStub("first", 100, "first fired")
	second := triggeredStub("second", 101, "second fired")
	last := triggeredStub("last", 102.5, "last fired")
	last.result.Metadata = map[string]string{"key": "value"}

	and := NewAnd(first, second, last)
	result := and.Evaluate(testContext(testCandle(100, 110, 95, 105), nil))

	assert.True(t, result.Triggered)
	assert.True(t, result.Price.Unwrap().Equal(decimal.NewFromFloat(102.5)))
	assert.Equal(t, "AND satisfied: last fired", result.Reason)
	assert.Equal(t, "and(first, second, last)", result.ConditionName)
	assert.Equal(t, map[string]string{"key": "value"}, result.Metadata)
	assert.Equal(t, 1, first.evaluated)
	assert.Equal(t, 1, second.evaluated)
	assert.Equal(t, 1, last.evaluated)
}

func TestOrShortCircuitsOnFirstTrigger(t *testing.T) {
	first := triggeredStub("first", 99.5, "first fired")
	second := triggeredStub("second", 101, "second fired")

	or := NewOr(first, second)
	result := or.Evaluate(testContext(testCandle(100, 110, 95, 105), nil))

	assert.True(t, result.Triggered)
	assert.True(t, result.Price.Unwrap().Equal(decimal.NewFromFloat(99.5)))
	assert.Equal(t, "OR satisfied: first fired", result.Reason)
	assert.Equal(t, "or(first, second)", result.ConditionName)
	assert.Equal(t, 1, first.evaluated)
	assert.Equal(t, 0, second.evaluated)
}

func TestOrFallsThroughToLaterCondition(t *testing.T) {
	first := notTriggeredStub("first")
	second := triggeredStub("second", 101, "second fired")

	or := NewOr(first, second)
	result := or.Evaluate(testContext(testCandle(100, 110, 95, 105), nil))

	assert.True(t, result.Triggered)
	assert.True(t, result.Price.Unwrap().Equal(decimal.NewFromFloat(101)))
	assert.Equal(t, "OR satisfied: second fired", result.Reason)
}

func TestOrNoneTriggered(t *testing.T) {
	first := notTriggeredStub("first")
	second := notTriggeredStub("second")

	or := NewOr(first, second)
	result := or.Evaluate(testContext(testCandle(100, 110, 95, 105), nil))

	assert.False(t, result.Triggered)
	assert.True(t, result.Price.IsNone())
	assert.Equal(t, 1, first.evaluated)
	assert.Equal(t, 1, second.evaluated)
}

func TestNotInverts(t *testing.T) {
	ctx := testContext(testCandle(100, 110, 95, 105), nil)

	not := NewNot(triggeredStub("inner", 100, "inner fired"))
	result := not.Evaluate(ctx)
	assert.False(t, result.Triggered)

	not = NewNot(notTriggeredStub("inner"))
	result = not.Evaluate(ctx)
	assert.True(t, result.Triggered)
	assert.True(t, result.Price.IsNone())
	assert.Equal(t, "not(inner)", result.ConditionName)
}
