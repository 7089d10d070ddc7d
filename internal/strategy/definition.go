// Package strategy defines immutable strategy definitions (entry condition
// plus ordered exit rules), the registry that owns them, and the limit-price
// rules strategies share.
package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/gfob-engine/internal/condition"
	"github.com/rxtech-lab/gfob-engine/pkg/errors"
)

// Direction is the side a strategy trades.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// PriceMode selects how the sell limit price is derived when an exit rule
// triggers.
type PriceMode string

const (
	// PriceModeResult uses the price carried by the triggered condition
	// result, falling back to the bar close when the result has none.
	PriceModeResult PriceMode = "result"
	// PriceModeSellRule prices the sell with CalculateSellPrice from the
	// bar's cycle phase, ema25 and p95, falling back to the bar close when
	// those indicators are missing.
	PriceModeSellRule PriceMode = "sell_rule"
	// PriceModeClose uses the bar close.
	PriceModeClose PriceMode = "close"
)

// ExitRule pairs an exit condition with its pricing mode and the reason
// recorded on the resulting sell order. Rules are evaluated in slice order;
// the first triggered rule wins and no later rule is consulted.
type ExitRule struct {
	Condition condition.Condition
	PriceMode PriceMode
	// Reason tags the sell order, e.g. types.OrderReasonStopLoss.
	Reason string
}

// Definition is an immutable strategy: one entry condition, ordered exit
// rules, and the order-pricing parameters the runner needs. Definitions are
// registered once and never mutated afterwards.
type Definition struct {
	ID        string    `validate:"required"`
	Name      string    `validate:"required"`
	Direction Direction `validate:"required,oneof=long short"`
	// Entry decides whether a buy order is created. Its result price, when
	// present, is the base the buy limit is derived from.
	Entry condition.Condition `validate:"-"`
	// Exits are evaluated per holding in priority order.
	Exits []ExitRule `validate:"-"`
	// OrderDiscount shifts the buy limit below the base price:
	// limit = base * (1 - OrderDiscount).
	OrderDiscount decimal.Decimal
	// RequiredIndicators names the snapshot keys the conditions consult.
	// Missing values never fail a run; they make conditions not trigger.
	RequiredIndicators []string
}

// Validate checks the definition is complete enough to run.
func (d *Definition) Validate() error {
	validate := validator.New()
	if err := validate.Struct(d); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidStrategy, "invalid strategy definition", err)
	}

	if d.Entry == nil {
		return errors.Newf(errors.ErrCodeInvalidStrategy, "strategy %s has no entry condition", d.ID)
	}

	if len(d.Exits) == 0 {
		return errors.Newf(errors.ErrCodeInvalidStrategy, "strategy %s has no exit rules", d.ID)
	}

	for i, exit := range d.Exits {
		if exit.Condition == nil {
			return errors.Newf(errors.ErrCodeInvalidStrategy, "strategy %s exit rule %d has no condition", d.ID, i)
		}
		switch exit.PriceMode {
		case PriceModeResult, PriceModeSellRule, PriceModeClose:
		default:
			return errors.Newf(errors.ErrCodeInvalidStrategy,
				"strategy %s exit rule %d has unknown price mode %q", d.ID, i, exit.PriceMode)
		}
		if exit.Reason == "" {
			return errors.Newf(errors.ErrCodeInvalidStrategy, "strategy %s exit rule %d has no reason", d.ID, i)
		}
	}

	if d.OrderDiscount.IsNegative() || d.OrderDiscount.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return errors.Newf(errors.ErrCodeInvalidStrategy,
			"strategy %s order discount must be in [0, 1), got %s", d.ID, d.OrderDiscount)
	}

	return nil
}
