package engine

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/gfob-engine/internal/rolling"
	"github.com/rxtech-lab/gfob-engine/internal/strategy"
	"github.com/rxtech-lab/gfob-engine/pkg/errors"
	"github.com/rxtech-lab/gfob-engine/pkg/utils"
)

// DefaultDecimalPrecision is the number of decimal places order quantities
// are truncated to when the config does not set one.
const DefaultDecimalPrecision = 8

type BacktestEngineV1Config struct {
	InitialCapital   decimal.Decimal                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital for the backtest in USD,minimum=0"`
	MaxPositions     int                                `yaml:"max_positions" json:"max_positions" validate:"gt=0" jsonschema:"title=Max Positions,description=Ceiling on concurrently open holdings across all symbols,minimum=1"`
	DecimalPrecision int                                `yaml:"decimal_precision" json:"decimal_precision" validate:"gte=0" jsonschema:"title=Decimal Precision,description=Number of decimal places order quantities are truncated to,minimum=0"`
	Symbols          []string                           `yaml:"symbols" json:"symbols" jsonschema:"title=Symbols,description=Symbols to process in order; empty means every symbol the data source carries"`
	StartTime        optional.Option[time.Time]         `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime          optional.Option[time.Time]         `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	StrategyID       string                             `yaml:"strategy_id" json:"strategy_id" validate:"required" jsonschema:"title=Strategy ID,description=Registered strategy the run executes"`
	Strategy         strategy.PercentileReversionConfig `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy,description=Parameters of the built-in percentile reversion strategy"`
	Rolling          rolling.Config                     `yaml:"rolling" json:"rolling" jsonschema:"title=Rolling Statistics,description=Parameters of the causal rolling statistics calculator"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
// The shadow struct starts from the defaults, so fields absent from the
// document keep their default values.
func (c *BacktestEngineV1Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		InitialCapital   float64                            `yaml:"initial_capital"`
		MaxPositions     int                                `yaml:"max_positions"`
		DecimalPrecision int                                `yaml:"decimal_precision"`
		Symbols          []string                           `yaml:"symbols"`
		StartTime        *time.Time                         `yaml:"start_time"`
		EndTime          *time.Time                         `yaml:"end_time"`
		StrategyID       string                             `yaml:"strategy_id"`
		Strategy         strategy.PercentileReversionConfig `yaml:"strategy"`
		Rolling          rolling.Config                     `yaml:"rolling"`
	}

	config := Config{
		DecimalPrecision: DefaultDecimalPrecision,
		StrategyID:       strategy.PercentileReversionID,
		Strategy:         strategy.DefaultPercentileReversionConfig(),
		Rolling:          rolling.DefaultConfig(),
	}
	if err := unmarshal(&config); err != nil {
		return err
	}

	capital, err := utils.DecimalFromFloat(config.InitialCapital)
	if err != nil {
		return err
	}

	c.InitialCapital = capital
	c.MaxPositions = config.MaxPositions
	c.DecimalPrecision = config.DecimalPrecision
	c.Symbols = config.Symbols
	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}
	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}
	c.StrategyID = config.StrategyID
	c.Strategy = config.Strategy
	c.Rolling = config.Rolling

	return nil
}

// Validate rejects configs the engine cannot run with. It is called before
// any bar is processed, so a bad config never produces partial output.
func (c *BacktestEngineV1Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid engine config", err)
	}

	if !c.InitialCapital.IsPositive() {
		return errors.Newf(errors.ErrCodeInvalidCapital, "initial capital must be positive, got %s", c.InitialCapital)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"end time %s is before start time %s", c.EndTime.Unwrap(), c.StartTime.Unwrap())
	}

	if err := c.Rolling.Validate(); err != nil {
		return err
	}

	// The strategy section only drives the built-in strategy; a custom
	// registered strategy carries its own parameters.
	if c.StrategyID == strategy.PercentileReversionID {
		if err := c.Strategy.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}
			if t.String() == "decimal.Decimal" {
				return &jsonschema.Schema{
					Type: "number",
				}
			}
			return nil
		},
	}

	// Generate schema from BacktestEngineV1Config struct
	schema := reflector.Reflect(c)

	// Set schema metadata
	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// TestConfig returns a runnable config for tests: the built-in strategy with
// default parameters and the default rolling statistics.
func TestConfig(initialCapital decimal.Decimal, maxPositions int) BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital:   initialCapital,
		MaxPositions:     maxPositions,
		DecimalPrecision: DefaultDecimalPrecision,
		Symbols:          nil,
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
		StrategyID:       strategy.PercentileReversionID,
		Strategy:         strategy.DefaultPercentileReversionConfig(),
		Rolling:          rolling.DefaultConfig(),
	}
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital:   decimal.Zero,
		MaxPositions:     0,
		DecimalPrecision: DefaultDecimalPrecision,
		Symbols:          nil,
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
		StrategyID:       strategy.PercentileReversionID,
		Strategy:         strategy.DefaultPercentileReversionConfig(),
		Rolling:          rolling.DefaultConfig(),
	}
}
