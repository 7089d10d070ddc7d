package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/gfob-engine/internal/condition"
	"github.com/rxtech-lab/gfob-engine/internal/types"
	"github.com/rxtech-lab/gfob-engine/pkg/errors"
	"github.com/rxtech-lab/gfob-engine/pkg/utils"
)

// PercentileReversionID is the registry ID of the built-in strategy.
const PercentileReversionID = "percentile_reversion"

// PercentileReversionConfig parameterizes the built-in mean-reversion
// strategy. Thresholds are empirical-CDF percentiles in [0, 100].
type PercentileReversionConfig struct {
	// EntryThreshold gates entries: the standardized-deviation percentile
	// must be at or below it.
	EntryThreshold float64 `yaml:"entry_threshold" json:"entry_threshold" validate:"gte=0,lte=100"`
	// ExitThreshold gates the take-profit exit: the percentile must be at
	// or above it.
	ExitThreshold float64 `yaml:"exit_threshold" json:"exit_threshold" validate:"gte=0,lte=100"`
	// OrderDiscount shifts the buy limit below the entry base price.
	OrderDiscount decimal.Decimal `yaml:"order_discount" json:"order_discount"`
	// StopLossFraction exits a holding when the bar low reaches
	// entry * (1 - fraction).
	StopLossFraction decimal.Decimal `yaml:"stop_loss_fraction" json:"stop_loss_fraction"`
	// MaxHoldingBars exits a holding held for this many bars or longer.
	MaxHoldingBars int `yaml:"max_holding_bars" json:"max_holding_bars" validate:"gt=0"`
}

// DefaultPercentileReversionConfig returns the stock parameters: buy below
// the 5th percentile, take profit above the 95th, 0.1% limit discount, 5%
// stop loss, 30-bar timeout.
func DefaultPercentileReversionConfig() PercentileReversionConfig {
	return PercentileReversionConfig{
		EntryThreshold:   5,
		ExitThreshold:    95,
		OrderDiscount:    decimal.NewFromFloat(0.001),
		StopLossFraction: decimal.NewFromFloat(0.05),
		MaxHoldingBars:   30,
	}
}

// UnmarshalYAML implements custom unmarshaling for PercentileReversionConfig.
// Decimal fields are decoded through float shadows; fields absent from the
// document keep the values already on the receiver.
func (c *PercentileReversionConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		EntryThreshold   *float64 `yaml:"entry_threshold"`
		ExitThreshold    *float64 `yaml:"exit_threshold"`
		OrderDiscount    *float64 `yaml:"order_discount"`
		StopLossFraction *float64 `yaml:"stop_loss_fraction"`
		MaxHoldingBars   *int     `yaml:"max_holding_bars"`
	}

	var config Config
	if err := unmarshal(&config); err != nil {
		return err
	}

	if config.EntryThreshold != nil {
		c.EntryThreshold = *config.EntryThreshold
	}

	if config.ExitThreshold != nil {
		c.ExitThreshold = *config.ExitThreshold
	}

	if config.OrderDiscount != nil {
		discount, err := utils.DecimalFromFloat(*config.OrderDiscount)
		if err != nil {
			return err
		}

		c.OrderDiscount = discount
	}

	if config.StopLossFraction != nil {
		fraction, err := utils.DecimalFromFloat(*config.StopLossFraction)
		if err != nil {
			return err
		}

		c.StopLossFraction = fraction
	}

	if config.MaxHoldingBars != nil {
		c.MaxHoldingBars = *config.MaxHoldingBars
	}

	return nil
}

// Validate checks the configuration before any bar is processed.
func (c *PercentileReversionConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid percentile reversion config", err)
	}

	if c.OrderDiscount.IsNegative() || c.OrderDiscount.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"order discount must be in [0, 1), got %s", c.OrderDiscount)
	}

	if !c.StopLossFraction.IsPositive() || c.StopLossFraction.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"stop loss fraction must be in (0, 1), got %s", c.StopLossFraction)
	}

	return nil
}

// NewPercentileReversion builds the built-in long strategy: enter when the
// deviation percentile is washed out at the p5 band outside a strong bear
// regime, exit on stop loss, holding timeout, or a percentile take-profit
// priced by the cycle-phase sell rule.
func NewPercentileReversion(cfg PercentileReversionConfig) (Definition, error) {
	if err := cfg.Validate(); err != nil {
		return Definition{}, err
	}

	// The p5 range check runs last so the entry result carries the p5 price
	// as the buy limit base.
	entry := condition.NewAnd(
		condition.NewIndicatorBelowThreshold(types.IndicatorKeyProb, cfg.EntryThreshold, false),
		condition.NewNot(condition.NewCyclePhaseIs(types.CyclePhaseBearStrong)),
		condition.NewPriceInRange(types.IndicatorKeyP5),
	)

	exits := []ExitRule{
		{
			Condition: condition.NewStopLoss(cfg.StopLossFraction),
			PriceMode: PriceModeResult,
			Reason:    types.OrderReasonStopLoss,
		},
		{
			Condition: condition.NewMaxHoldingBars(cfg.MaxHoldingBars),
			PriceMode: PriceModeClose,
			Reason:    types.OrderReasonMaxHoldingBars,
		},
		{
			Condition: condition.NewIndicatorAboveThreshold(types.IndicatorKeyProb, cfg.ExitThreshold, false),
			PriceMode: PriceModeSellRule,
			Reason:    types.OrderReasonTakeProfit,
		},
	}

	return Definition{
		ID:            PercentileReversionID,
		Name:          "Percentile Reversion",
		Direction:     DirectionLong,
		Entry:         entry,
		Exits:         exits,
		OrderDiscount: cfg.OrderDiscount,
		RequiredIndicators: []string{
			string(types.IndicatorKeyProb),
			string(types.IndicatorKeyP5),
			string(types.IndicatorKeyP95),
			string(types.IndicatorKeyEMA25),
			string(types.LabelKeyCyclePhase),
		},
	}, nil
}
