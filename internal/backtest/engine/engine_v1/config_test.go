package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/gfob-engine/internal/strategy"
	"github.com/rxtech-lab/gfob-engine/pkg/errors"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) TestEmptyConfig() {
	config := EmptyConfig()

	s.True(config.InitialCapital.IsZero())
	s.Equal(0, config.MaxPositions)
	s.Equal(DefaultDecimalPrecision, config.DecimalPrecision)
	s.Nil(config.Symbols)
	s.True(config.StartTime.IsNone())
	s.True(config.EndTime.IsNone())
	s.Equal(strategy.PercentileReversionID, config.StrategyID)
	s.Equal(strategy.DefaultPercentileReversionConfig(), config.Strategy)
	s.Equal([]int{7, 25, 99}, config.Rolling.EmaSpans)
	s.Equal(100, config.Rolling.WindowSize)
}

func (s *ConfigTestSuite) TestTestConfig() {
	config := TestConfig(decimal.NewFromInt(25000), 3)

	s.True(config.InitialCapital.Equal(decimal.NewFromInt(25000)))
	s.Equal(3, config.MaxPositions)
	s.Equal(strategy.PercentileReversionID, config.StrategyID)
	s.NoError(config.Validate())
}

func (s *ConfigTestSuite) TestUnmarshalYAMLComplete() {
	yamlData := `
initial_capital: 50000
max_positions: 4
decimal_precision: 2
symbols: [BTCUSDT, ETHUSDT]
start_time: 2023-01-01T00:00:00Z
end_time: 2023-12-31T00:00:00Z
strategy_id: percentile_reversion
strategy:
  entry_threshold: 10
  exit_threshold: 90
  order_discount: 0.002
  stop_loss_fraction: 0.08
  max_holding_bars: 12
rolling:
  ema_spans: [5, 20]
  primary_span: 20
  ewma_span: 40
  window_size: 50
  epsilon: 1e-10
`

	var config BacktestEngineV1Config
	s.Require().NoError(yaml.Unmarshal([]byte(yamlData), &config))

	s.True(config.InitialCapital.Equal(decimal.NewFromInt(50000)))
	s.Equal(4, config.MaxPositions)
	s.Equal(2, config.DecimalPrecision)
	s.Equal([]string{"BTCUSDT", "ETHUSDT"}, config.Symbols)

	s.Require().True(config.StartTime.IsSome())
	s.Equal(2023, config.StartTime.Unwrap().Year())
	s.Require().True(config.EndTime.IsSome())
	s.Equal(time.December, config.EndTime.Unwrap().Month())

	s.InDelta(10.0, config.Strategy.EntryThreshold, 1e-12)
	s.True(config.Strategy.OrderDiscount.Equal(decimal.RequireFromString("0.002")))
	s.Equal(12, config.Strategy.MaxHoldingBars)

	s.Equal([]int{5, 20}, config.Rolling.EmaSpans)
	s.Equal(20, config.Rolling.PrimarySpan)
	s.Equal(50, config.Rolling.WindowSize)

	s.NoError(config.Validate())
}

func (s *ConfigTestSuite) TestUnmarshalYAMLKeepsDefaultsForAbsentFields() {
	yamlData := `
initial_capital: 10000
max_positions: 1
`

	var config BacktestEngineV1Config
	s.Require().NoError(yaml.Unmarshal([]byte(yamlData), &config))

	s.Equal(DefaultDecimalPrecision, config.DecimalPrecision)
	s.True(config.StartTime.IsNone())
	s.True(config.EndTime.IsNone())
	s.Equal(strategy.PercentileReversionID, config.StrategyID)
	s.Equal(strategy.DefaultPercentileReversionConfig(), config.Strategy)
	s.Equal([]int{7, 25, 99}, config.Rolling.EmaSpans)
	s.Equal(25, config.Rolling.PrimarySpan)

	s.NoError(config.Validate())
}

func (s *ConfigTestSuite) TestUnmarshalYAMLMergesPartialSections() {
	yamlData := `
initial_capital: 10000
max_positions: 1
strategy:
  entry_threshold: 20
rolling:
  window_size: 8
`

	var config BacktestEngineV1Config
	s.Require().NoError(yaml.Unmarshal([]byte(yamlData), &config))

	// Touched keys land, everything else stays at the defaults.
	s.InDelta(20.0, config.Strategy.EntryThreshold, 1e-12)
	s.InDelta(95.0, config.Strategy.ExitThreshold, 1e-12)
	s.Equal(30, config.Strategy.MaxHoldingBars)
	s.Equal(8, config.Rolling.WindowSize)
	s.Equal([]int{7, 25, 99}, config.Rolling.EmaSpans)
	s.Equal(50, config.Rolling.EwmaSpan)
}

func (s *ConfigTestSuite) TestUnmarshalYAMLOnlyStartTime() {
	yamlData := `
initial_capital: 10000
max_positions: 1
start_time: 2024-06-01T00:00:00Z
`

	var config BacktestEngineV1Config
	s.Require().NoError(yaml.Unmarshal([]byte(yamlData), &config))

	s.True(config.StartTime.IsSome())
	s.True(config.EndTime.IsNone())
}

func (s *ConfigTestSuite) TestUnmarshalYAMLInvalid() {
	yamlData := `
initial_capital: not_a_number
`

	var config BacktestEngineV1Config
	s.Error(yaml.Unmarshal([]byte(yamlData), &config))
}

func (s *ConfigTestSuite) TestValidateRejectsBadConfigs() {
	tests := []struct {
		name   string
		mutate func(config *BacktestEngineV1Config)
		code   errors.ErrorCode
	}{
		{
			name:   "zero capital",
			mutate: func(config *BacktestEngineV1Config) { config.InitialCapital = decimal.Zero },
			code:   errors.ErrCodeInvalidCapital,
		},
		{
			name:   "negative capital",
			mutate: func(config *BacktestEngineV1Config) { config.InitialCapital = decimal.NewFromInt(-1) },
			code:   errors.ErrCodeInvalidCapital,
		},
		{
			name:   "zero max positions",
			mutate: func(config *BacktestEngineV1Config) { config.MaxPositions = 0 },
			code:   errors.ErrCodeInvalidConfiguration,
		},
		{
			name:   "missing strategy id",
			mutate: func(config *BacktestEngineV1Config) { config.StrategyID = "" },
			code:   errors.ErrCodeInvalidConfiguration,
		},
		{
			name: "end before start",
			mutate: func(config *BacktestEngineV1Config) {
				config.StartTime = optional.Some(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
				config.EndTime = optional.Some(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
			},
			code: errors.ErrCodeInvalidConfiguration,
		},
		{
			name:   "bad rolling window",
			mutate: func(config *BacktestEngineV1Config) { config.Rolling.WindowSize = 0 },
			code:   errors.ErrCodeInvalidWindow,
		},
		{
			name:   "entry threshold out of range",
			mutate: func(config *BacktestEngineV1Config) { config.Strategy.EntryThreshold = 101 },
			code:   errors.ErrCodeInvalidConfiguration,
		},
		{
			name:   "order discount at one",
			mutate: func(config *BacktestEngineV1Config) { config.Strategy.OrderDiscount = decimal.NewFromInt(1) },
			code:   errors.ErrCodeInvalidConfiguration,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			config := TestConfig(decimal.NewFromInt(10000), 2)
			tt.mutate(&config)

			err := config.Validate()
			s.Require().Error(err)
			s.Equal(tt.code, errors.GetCode(err))
		})
	}
}

func (s *ConfigTestSuite) TestValidateSkipsStrategySectionForCustomStrategy() {
	config := TestConfig(decimal.NewFromInt(10000), 2)
	config.StrategyID = "my-custom-strategy"
	// An invalid built-in section must not matter for a custom strategy.
	config.Strategy.EntryThreshold = -10

	s.NoError(config.Validate())
}

func (s *ConfigTestSuite) TestGenerateSchema() {
	config := &BacktestEngineV1Config{}
	schema, err := config.GenerateSchema()

	s.NoError(err)
	s.NotNil(schema)
	s.Equal("backtest-engine-v1-config", schema.Title)
	s.Equal("Configuration schema for BacktestEngineV1", schema.Description)
	s.Equal("http://json-schema.org/draft-07/schema#", schema.Version)
}

func (s *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := &BacktestEngineV1Config{}
	schemaJSON, err := config.GenerateSchemaJSON()

	s.NoError(err)
	s.NotEmpty(schemaJSON)

	var result map[string]interface{}
	s.Require().NoError(json.Unmarshal([]byte(schemaJSON), &result))

	s.Equal("backtest-engine-v1-config", result["title"])
	s.Contains(schemaJSON, `"initial_capital"`)
	s.Contains(schemaJSON, `"date-time"`)
}
