package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/gfob-engine/internal/backtest/engine"
	"github.com/rxtech-lab/gfob-engine/internal/strategy"
	"github.com/rxtech-lab/gfob-engine/internal/types"
)

// buildResults assembles the run's journals and aggregate statistics. It is
// called once, after the last bar has been processed.
func (b *BacktestEngineV1) buildResults(runID string, def strategy.Definition) engine.Results {
	finalEquity := b.config.InitialCapital

	var lastBarTime time.Time
	if n := len(b.state.equity); n > 0 {
		finalEquity = b.state.equity[n-1].Equity
		lastBarTime = b.state.equity[n-1].Timestamp
	}

	symbols := make([]string, len(b.state.symbolOrder))
	copy(symbols, b.state.symbolOrder)

	return engine.Results{
		RunID:          runID,
		StrategyID:     def.ID,
		Symbols:        symbols,
		InitialCapital: b.config.InitialCapital,
		FinalEquity:    finalEquity,
		Orders:         b.state.orders,
		Trades:         b.state.trades,
		Holdings:       b.state.openHoldings(),
		EquityCurve:    b.state.equity,
		Transactions:   b.state.allocator.Transactions(),
		Stats:          b.calculateStats(runID, def, symbols, finalEquity, lastBarTime),
	}
}

func (b *BacktestEngineV1) calculateStats(runID string, def strategy.Definition, symbols []string, finalEquity decimal.Decimal, lastBarTime time.Time) types.BacktestStats {
	return types.BacktestStats{
		ID:               runID,
		Timestamp:        lastBarTime,
		StrategyName:     def.ID,
		Symbols:          symbols,
		InitialCapital:   b.config.InitialCapital,
		FinalEquity:      finalEquity,
		TradeResult:      b.calculateTradeResult(),
		OrderResult:      b.calculateOrderResult(),
		TradeHoldingBars: b.calculateHoldingBars(),
		TradePnl:         b.calculateTradePnl(),
	}
}

func (b *BacktestEngineV1) calculateTradeResult() types.TradeResult {
	var wins, losses, total int

	for _, trade := range b.state.trades {
		if trade.Order.Side != types.OrderSideSell {
			continue
		}

		total++
		switch {
		case trade.PnL.IsPositive():
			wins++
		case trade.PnL.IsNegative():
			losses++
		}
	}

	result := types.TradeResult{
		NumberOfTrades:        total,
		NumberOfWinningTrades: wins,
		NumberOfLosingTrades:  losses,
		MaxDrawdown:           b.calculateMaxDrawdown(),
	}
	if total > 0 {
		result.WinRate = float64(wins) / float64(total)
	}

	return result
}

// calculateMaxDrawdown is the largest peak-to-trough equity decline as a
// fraction of the peak.
func (b *BacktestEngineV1) calculateMaxDrawdown() float64 {
	var peak decimal.Decimal
	var maxDrawdown float64

	for i, point := range b.state.equity {
		if i == 0 || point.Equity.GreaterThan(peak) {
			peak = point.Equity

			continue
		}

		if !peak.IsPositive() {
			continue
		}

		drawdown, _ := peak.Sub(point.Equity).Div(peak).Float64()
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown
}

func (b *BacktestEngineV1) calculateOrderResult() types.OrderResult {
	var result types.OrderResult

	for _, order := range b.state.orders {
		result.NumberOfOrders++

		switch order.Status {
		case types.OrderStatusFilled:
			result.NumberOfFilled++
		case types.OrderStatusCancelled:
			result.NumberOfCancelled++
		case types.OrderStatusExpired:
			result.NumberOfExpired++
		default:
		}
	}

	return result
}

func (b *BacktestEngineV1) calculateHoldingBars() types.TradeHoldingBars {
	if len(b.state.holdingBars) == 0 {
		return types.TradeHoldingBars{}
	}

	minBars := b.state.holdingBars[0]
	maxBars := b.state.holdingBars[0]
	sum := 0

	for _, bars := range b.state.holdingBars {
		if bars < minBars {
			minBars = bars
		}
		if bars > maxBars {
			maxBars = bars
		}
		sum += bars
	}

	return types.TradeHoldingBars{
		Min: minBars,
		Max: maxBars,
		Avg: float64(sum) / float64(len(b.state.holdingBars)),
	}
}

func (b *BacktestEngineV1) calculateTradePnl() types.TradePnl {
	unrealized := decimal.Zero
	for _, symbol := range b.state.symbolOrder {
		st := b.state.symbols[symbol]
		for i := range st.holdings {
			unrealized = unrealized.Add(st.holdings[i].UnrealizedPnL(st.lastClose))
		}
	}

	pnl := types.TradePnl{
		RealizedPnL:   b.state.realizedPnL,
		UnrealizedPnL: unrealized,
		TotalPnL:      b.state.realizedPnL.Add(unrealized),
	}

	first := true
	for _, trade := range b.state.trades {
		if trade.Order.Side != types.OrderSideSell {
			continue
		}

		if first || trade.PnL.LessThan(pnl.MaximumLoss) {
			pnl.MaximumLoss = trade.PnL
		}
		if first || trade.PnL.GreaterThan(pnl.MaximumProfit) {
			pnl.MaximumProfit = trade.PnL
		}
		first = false
	}

	return pnl
}
