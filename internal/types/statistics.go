package types

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// EquityPoint is one point of the portfolio equity curve, recorded once per
// bar after all symbols have been processed.
type EquityPoint struct {
	BarIndex  int       `yaml:"bar_index" csv:"bar_index"`
	Timestamp time.Time `yaml:"timestamp" csv:"timestamp"`
	// Equity is available + frozen + holdings marked at the bar's close.
	Equity    decimal.Decimal `yaml:"equity" csv:"equity"`
	Available decimal.Decimal `yaml:"available" csv:"available"`
	Frozen    decimal.Decimal `yaml:"frozen" csv:"frozen"`
	// HoldingsValue is the market value of all open holdings at the close.
	HoldingsValue decimal.Decimal `yaml:"holdings_value" csv:"holdings_value"`
}

type TradeHoldingBars struct {
	// Minimum holding time of a closed trade in bars
	Min int `yaml:"min"`
	// Maximum holding time of a closed trade in bars
	Max int `yaml:"max"`
	// Average holding time of a closed trade in bars
	Avg float64 `yaml:"avg"`
}

type TradePnl struct {
	// Realized PnL. By adding all the sell trades' pnl.
	RealizedPnL decimal.Decimal `yaml:"realized_pnl"`
	// Unrealized PnL of holdings still open at the end, marked at the last close.
	UnrealizedPnL decimal.Decimal `yaml:"unrealized_pnl"`
	// Total PnL. By adding RealizedPnL and UnrealizedPnL.
	TotalPnL decimal.Decimal `yaml:"total_pnl"`
	// Maximum loss. Find all realized pnl's minimum value.
	MaximumLoss decimal.Decimal `yaml:"maximum_loss"`
	// Maximum profit. Find all realized pnl's maximum value.
	MaximumProfit decimal.Decimal `yaml:"maximum_profit"`
}

type TradeResult struct {
	// Count of all filled sell trades.
	NumberOfTrades int `yaml:"number_of_trades"`
	// Count of winning trades that has positive pnl.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades"`
	// Count of losing trades that has negative pnl.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades"`
	// Win rate.
	WinRate float64 `yaml:"win_rate"`
	// Maximum drawdown of the equity curve, as a fraction of the peak.
	MaxDrawdown float64 `yaml:"max_drawdown"`
}

type OrderResult struct {
	// Count of all orders that reached a terminal status.
	NumberOfOrders int `yaml:"number_of_orders"`
	// Count of filled orders.
	NumberOfFilled int `yaml:"number_of_filled"`
	// Count of buy orders cancelled because their price was not reached.
	NumberOfCancelled int `yaml:"number_of_cancelled"`
	// Count of sell orders expired because their price was not reached.
	NumberOfExpired int `yaml:"number_of_expired"`
}

// BacktestStats is the aggregate result of one backtest run.
type BacktestStats struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is the time of the last processed bar, so identical runs
	// produce identical stats.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// StrategyName is the name of the strategy that produced these stats.
	StrategyName string `yaml:"strategy_name" json:"strategy_name"`
	// Symbols covered by this run.
	Symbols []string `yaml:"symbols" json:"symbols"`
	// InitialCapital the run started with.
	InitialCapital decimal.Decimal `yaml:"initial_capital"`
	// FinalEquity at the last bar, holdings marked at the last close.
	FinalEquity decimal.Decimal `yaml:"final_equity"`
	// Result of all trades.
	TradeResult TradeResult `yaml:"trade_result"`
	// Result of all orders.
	OrderResult OrderResult `yaml:"order_result"`
	// Holding time of all closed trades.
	TradeHoldingBars TradeHoldingBars `yaml:"trade_holding_bars"`
	// PnL of all trades.
	TradePnl TradePnl `yaml:"trade_pnl"`
	// OrdersFilePath is the path to the orders parquet file.
	OrdersFilePath string `yaml:"orders_file_path" json:"orders_file_path"`
	// TradesFilePath is the path to the trades parquet file.
	TradesFilePath string `yaml:"trades_file_path" json:"trades_file_path"`
	// EquityFilePath is the path to the equity curve parquet file.
	EquityFilePath string `yaml:"equity_file_path" json:"equity_file_path"`
}

func WriteBacktestStats(path string, stats []BacktestStats) error {
	// Marshal the struct to YAML
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest stats to YAML: %w", err)
	}

	// Write the YAML data to the file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest stats to file: %w", err)
	}

	return nil
}
