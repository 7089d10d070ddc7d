// Package engine contains BacktestEngineV1, the bar-replay engine that
// executes a strategy with good-for-one-bar limit orders: an order created at
// bar t is matched against bar t+1 and never survives it. Per bar and per
// symbol the engine matches sells, matches the buy, advances the causal
// statistics, creates sell orders for uncovered holdings and at most one buy
// order, then records one equity point and checks capital conservation.
package engine

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/gfob-engine/internal/backtest/engine"
	"github.com/rxtech-lab/gfob-engine/internal/datasource"
	"github.com/rxtech-lab/gfob-engine/internal/logger"
	"github.com/rxtech-lab/gfob-engine/internal/strategy"
	"github.com/rxtech-lab/gfob-engine/internal/types"
	"github.com/rxtech-lab/gfob-engine/pkg/errors"
)

// BacktestEngineV1 replays aligned bar series against one strategy. It is not
// safe for concurrent use; a run owns the engine until Results is read or
// Reset is called.
type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	registry      strategy.Registry
	datasource    datasource.DataSource
	resultsFolder string
	log           *logger.Logger
	state         *runState
	results       *engine.Results
	initialized   bool
}

// NewBacktestEngineV1 creates a new backtest engine
func NewBacktestEngineV1() engine.Engine {
	return &BacktestEngineV1{
		config:        EmptyConfig(),
		registry:      strategy.NewRegistry(),
		datasource:    nil,
		resultsFolder: "",
		log:           logger.NewNopLogger(),
		state:         nil,
		results:       nil,
		initialized:   false,
	}
}

// Initialize parses and validates the YAML config, then swaps the no-op
// logger for a real one. It must succeed before Run can be called.
func (b *BacktestEngineV1) Initialize(config string) error {
	var parsed BacktestEngineV1Config
	if err := yaml.Unmarshal([]byte(config), &parsed); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse engine config", err)
	}

	if err := parsed.Validate(); err != nil {
		return err
	}

	b.config = parsed

	log, err := logger.NewLogger()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to create logger", err)
	}
	b.log = log

	b.initialized = true
	b.log.Debug("Backtest engine initialized",
		zap.String("strategy_id", b.config.StrategyID),
		zap.String("initial_capital", b.config.InitialCapital.String()),
		zap.Int("max_positions", b.config.MaxPositions),
	)

	return nil
}

// SetConfigPath reads the YAML config at path and initializes from it.
func (b *BacktestEngineV1) SetConfigPath(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	return b.Initialize(string(content))
}

func (b *BacktestEngineV1) SetDataSource(source datasource.DataSource) error {
	if source == nil {
		return errors.New(errors.ErrCodeEngineMissingParts, "data source is nil")
	}

	b.datasource = source
	b.log.Debug("Data source configured",
		zap.Strings("symbols", source.Symbols()),
		zap.Int("bars", source.BarCount()),
	)

	return nil
}

func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	if folder == "" {
		return errors.New(errors.ErrCodeInvalidParameter, "results folder is empty")
	}

	b.resultsFolder = folder
	b.log.Debug("Results folder configured", zap.String("folder", folder))

	return nil
}

func (b *BacktestEngineV1) RegisterStrategy(definition strategy.Definition) error {
	if err := b.registry.RegisterStrategy(definition); err != nil {
		return err
	}

	b.log.Debug("Strategy registered", zap.String("strategy_id", definition.ID))

	return nil
}

func (b *BacktestEngineV1) preRunCheck() error {
	if !b.initialized {
		err := errors.New(errors.ErrCodeEngineNotInitialized, "engine is not initialized")
		b.log.Error("Pre-run check failed", zap.Error(err))

		return err
	}

	if b.datasource == nil {
		err := errors.New(errors.ErrCodeEngineMissingParts, "no data source configured")
		b.log.Error("Pre-run check failed", zap.Error(err))

		return err
	}

	return nil
}

// resolveStrategy looks the configured strategy up in the registry. The
// built-in strategy is constructed on demand from the config's strategy
// section; anything else must have been registered explicitly.
func (b *BacktestEngineV1) resolveStrategy() (strategy.Definition, error) {
	def, err := b.registry.GetStrategy(b.config.StrategyID)
	if err == nil {
		return def, nil
	}

	if b.config.StrategyID != strategy.PercentileReversionID {
		return strategy.Definition{}, err
	}

	def, err = strategy.NewPercentileReversion(b.config.Strategy)
	if err != nil {
		return strategy.Definition{}, err
	}

	if err := b.registry.RegisterStrategy(def); err != nil {
		return strategy.Definition{}, err
	}

	return def, nil
}

func (b *BacktestEngineV1) resolveSymbols() ([]string, error) {
	available := b.datasource.Symbols()

	if len(b.config.Symbols) == 0 {
		if len(available) == 0 {
			return nil, errors.New(errors.ErrCodeDataNotFound, "data source has no symbols")
		}

		return available, nil
	}

	known := make(map[string]bool, len(available))
	for _, symbol := range available {
		known[symbol] = true
	}

	for _, symbol := range b.config.Symbols {
		if !known[symbol] {
			return nil, errors.Newf(errors.ErrCodeSymbolNotFound, "symbol %s is not in the data source", symbol)
		}
	}

	return b.config.Symbols, nil
}

// resolveBarRange maps the optional start/end times onto bar indexes. Series
// are aligned, so the first symbol's timestamps stand for all.
func (b *BacktestEngineV1) resolveBarRange(symbols []string) (int, int, error) {
	count := b.datasource.BarCount()
	if count == 0 {
		return 0, 0, errors.New(errors.ErrCodeDataNotFound, "data source has no bars")
	}

	startIdx := 0
	endIdx := count - 1

	if b.config.StartTime.IsSome() {
		start := b.config.StartTime.Unwrap()
		for startIdx <= endIdx {
			bar, err := b.datasource.BarAt(symbols[0], startIdx)
			if err != nil {
				return 0, 0, err
			}
			if !bar.Candle.Time.Before(start) {
				break
			}
			startIdx++
		}
	}

	if b.config.EndTime.IsSome() {
		end := b.config.EndTime.Unwrap()
		for endIdx >= startIdx {
			bar, err := b.datasource.BarAt(symbols[0], endIdx)
			if err != nil {
				return 0, 0, err
			}
			if !bar.Candle.Time.After(end) {
				break
			}
			endIdx--
		}
	}

	if startIdx > endIdx {
		return 0, 0, errors.Newf(errors.ErrCodeInvalidConfiguration,
			"configured time range selects no bars (%d available)", count)
	}

	return startIdx, endIdx, nil
}

// Run executes the backtest over the configured bar range. It is
// all-or-nothing: any error aborts the run and no results are produced.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) error {
	if err := b.preRunCheck(); err != nil {
		return err
	}

	def, err := b.resolveStrategy()
	if err != nil {
		b.log.Error("Failed to resolve strategy",
			zap.String("strategy_id", b.config.StrategyID),
			zap.Error(err),
		)

		return err
	}

	symbols, err := b.resolveSymbols()
	if err != nil {
		b.log.Error("Failed to resolve symbols", zap.Error(err))

		return err
	}

	startIdx, endIdx, err := b.resolveBarRange(symbols)
	if err != nil {
		b.log.Error("Failed to resolve bar range", zap.Error(err))

		return err
	}

	state, err := newRunState(b.config, symbols)
	if err != nil {
		return err
	}
	b.state = state
	b.results = nil

	// The run ID is derived from the run parameters, so identical runs carry
	// identical IDs.
	runID := uuid.NewSHA1(idNamespace, []byte(fmt.Sprintf("run:%s:%s:%d:%d:%s",
		def.ID, strings.Join(symbols, ","), startIdx, endIdx, b.config.InitialCapital))).String()
	total := endIdx - startIdx + 1

	b.log.Info("Backtest run starting",
		zap.String("run_id", runID),
		zap.String("strategy_id", def.ID),
		zap.Strings("symbols", symbols),
		zap.Int("bars", total),
	)

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, total, symbols); err != nil {
			return err
		}
	}

	for barIndex := startIdx; barIndex <= endIdx; barIndex++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := b.processBar(def, barIndex); err != nil {
			return err
		}

		if callbacks.OnBar != nil {
			if err := (*callbacks.OnBar)(barIndex-startIdx+1, total); err != nil {
				return err
			}
		}
	}

	results := b.buildResults(runID, def)

	resultFolder := ""
	if b.resultsFolder != "" {
		resultFolder = b.resultsFolder
		if err := b.writeResults(resultFolder, &results); err != nil {
			b.log.Error("Failed to write results", zap.String("folder", resultFolder), zap.Error(err))

			return err
		}
	}

	b.results = &results

	b.log.Info("Backtest run finished",
		zap.String("run_id", runID),
		zap.String("final_equity", results.FinalEquity.String()),
		zap.Int("trades", len(results.Trades)),
	)

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(runID, resultFolder)
	}

	return nil
}

// processBar runs the per-symbol phases for one bar, then records the global
// equity point and asserts capital conservation.
func (b *BacktestEngineV1) processBar(def strategy.Definition, barIndex int) error {
	var barTime time.Time

	for _, symbol := range b.state.symbolOrder {
		st := b.state.symbols[symbol]

		bar, err := b.datasource.BarAt(symbol, barIndex)
		if err != nil {
			return err
		}

		barTime = bar.Candle.Time
		st.lastClose = bar.Candle.Close

		if err := b.matchSellOrders(st, bar, barIndex); err != nil {
			return err
		}

		if err := b.matchBuyOrder(st, bar, barIndex); err != nil {
			return err
		}

		b.updateIndicators(st, &bar)

		b.createSellOrders(st, def, bar, barIndex)

		if err := b.createBuyOrder(st, def, bar, barIndex); err != nil {
			return err
		}
	}

	b.state.appendEquityPoint(barIndex, barTime)

	if err := b.state.checkConservation(); err != nil {
		b.log.Error("Capital conservation violated", zap.Int("bar", barIndex), zap.Error(err))

		return err
	}

	return nil
}

// updateIndicators folds the bar's close into the symbol's causal calculator
// and overlays the computed values on the bar's snapshot. The percentile is
// deleted first so a cold-start calculator never leaves a stale source value
// visible to the conditions.
func (b *BacktestEngineV1) updateIndicators(st *symbolState, bar *types.Bar) {
	snapshot := st.calculator.Update(bar.Candle.Close.InexactFloat64())

	merged := bar.Indicators.Clone()
	merged.DeleteValue(types.IndicatorKeyProb)

	for span, value := range snapshot.Emas {
		merged.SetValue(types.IndicatorKey(fmt.Sprintf("ema%d", span)), value)
	}

	if snapshot.Prob.IsSome() {
		merged.SetValue(types.IndicatorKeyProb, snapshot.Prob.Unwrap())
	}

	bar.Indicators = merged
}

// Results returns the outcome of the last completed run.
func (b *BacktestEngineV1) Results() (engine.Results, error) {
	if b.results == nil {
		return engine.Results{}, errors.New(errors.ErrCodeEngineMissingParts, "no completed run to report")
	}

	return *b.results, nil
}

// Reset returns the engine to its just-constructed state.
func (b *BacktestEngineV1) Reset() error {
	b.config = EmptyConfig()
	b.registry.Clear()
	b.datasource = nil
	b.resultsFolder = ""
	b.state = nil
	b.results = nil
	b.initialized = false
	b.log = logger.NewNopLogger()

	return nil
}

// GetConfigSchema returns the JSON schema of the engine config.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	return b.config.GenerateSchemaJSON()
}
