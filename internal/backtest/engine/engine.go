package engine

import (
	"context"

	"github.com/rxtech-lab/gfob-engine/internal/datasource"
	"github.com/rxtech-lab/gfob-engine/internal/strategy"
	"github.com/rxtech-lab/gfob-engine/internal/types"
	"github.com/shopspring/decimal"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnRunStartCallback is called once before the first bar is processed.
// runID is a unique identifier for this run, generated before processing starts.
type OnRunStartCallback func(runID string, totalBars int, symbols []string) error

// OnBarCallback is called after each bar has been fully processed.
type OnBarCallback func(current int, total int) error

// OnRunEndCallback is called when the run ends. resultFolderPath is empty
// when no results folder was configured.
type OnRunEndCallback func(runID string, resultFolderPath string)

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart *OnRunStartCallback
	OnBar      *OnBarCallback
	OnRunEnd   *OnRunEndCallback
}

// Results holds everything a finished run produced: the full order and
// trade journals, the final holdings, the per-bar equity curve, the
// capital transaction log, and the aggregate statistics.
type Results struct {
	RunID          string
	StrategyID     string
	Symbols        []string
	InitialCapital decimal.Decimal
	FinalEquity    decimal.Decimal
	Orders         []types.PendingOrder
	Trades         []types.Trade
	Holdings       []types.Holding
	EquityCurve    []types.EquityPoint
	Transactions   []types.CapitalTransaction
	Stats          types.BacktestStats
}

//nolint:interfacebloat // Engine is a core interface that naturally requires multiple methods
type Engine interface {
	// Initialize the engine with the given YAML configuration content.
	Initialize(config string) error
	// SetConfigPath reads the engine configuration from a file and initializes with it.
	SetConfigPath(path string) error
	// SetDataSource sets the data source for the engine.
	SetDataSource(source datasource.DataSource) error
	// SetResultsFolder sets the output directory for saving backtest results.
	// When unset the run keeps its results in memory only.
	SetResultsFolder(folder string) error
	// RegisterStrategy registers a strategy definition with the engine.
	// Could be called multiple times to register multiple strategies; the
	// configured strategy ID selects which one a run executes.
	RegisterStrategy(definition strategy.Definition) error
	// Run runs the engine and executes the configured strategy over every bar.
	// The context can be used to cancel the backtest operation.
	// Use LifecycleCallbacks to receive notifications at different phases of the run.
	Run(ctx context.Context, callbacks LifecycleCallbacks) error
	// Results returns the results of the last completed run.
	Results() (Results, error)
	// Reset returns the engine to its uninitialized state.
	Reset() error
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
