package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/gfob-engine/internal/logger"
	"github.com/rxtech-lab/gfob-engine/internal/types"
)

type StatsTestSuite struct {
	suite.Suite
	engine *BacktestEngineV1
}

func (s *StatsTestSuite) SetupTest() {
	state, err := newRunState(TestConfig(decimal.NewFromInt(10000), 2), []string{"BTCUSDT"})
	s.Require().NoError(err)

	s.engine = &BacktestEngineV1{
		config: TestConfig(decimal.NewFromInt(10000), 2),
		log:    logger.NewNopLogger(),
		state:  state,
	}
}

func TestStatsSuite(t *testing.T) {
	suite.Run(t, new(StatsTestSuite))
}

func (s *StatsTestSuite) equityCurve(values ...int64) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		s.engine.state.equity = append(s.engine.state.equity, types.EquityPoint{
			BarIndex:  i,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Equity:    decimal.NewFromInt(v),
		})
	}
}

func (s *StatsTestSuite) sellTrade(pnl string) types.Trade {
	return types.Trade{
		Order: types.PendingOrder{Side: types.OrderSideSell},
		PnL:   decimal.RequireFromString(pnl),
	}
}

func (s *StatsTestSuite) TestMaxDrawdownFindsDeepestDecline() {
	s.equityCurve(100, 120, 90, 110, 80)

	// Peak 120, trough 80.
	s.InDelta(1.0/3.0, s.engine.calculateMaxDrawdown(), 1e-12)
}

func (s *StatsTestSuite) TestMaxDrawdownZeroForRisingCurve() {
	s.equityCurve(100, 110, 120)

	s.Zero(s.engine.calculateMaxDrawdown())
}

func (s *StatsTestSuite) TestMaxDrawdownZeroForEmptyCurve() {
	s.Zero(s.engine.calculateMaxDrawdown())
}

func (s *StatsTestSuite) TestHoldingBarsAggregation() {
	s.engine.state.holdingBars = []int{3, 5, 2}

	bars := s.engine.calculateHoldingBars()
	s.Equal(2, bars.Min)
	s.Equal(5, bars.Max)
	s.InDelta(10.0/3.0, bars.Avg, 1e-12)
}

func (s *StatsTestSuite) TestHoldingBarsEmpty() {
	s.Equal(types.TradeHoldingBars{}, s.engine.calculateHoldingBars())
}

func (s *StatsTestSuite) TestOrderResultCountsByStatus() {
	statuses := []types.OrderStatus{
		types.OrderStatusFilled,
		types.OrderStatusFilled,
		types.OrderStatusCancelled,
		types.OrderStatusExpired,
		types.OrderStatusPending,
	}
	for _, status := range statuses {
		s.engine.state.orders = append(s.engine.state.orders, types.PendingOrder{Status: status})
	}

	result := s.engine.calculateOrderResult()
	s.Equal(5, result.NumberOfOrders)
	s.Equal(2, result.NumberOfFilled)
	s.Equal(1, result.NumberOfCancelled)
	s.Equal(1, result.NumberOfExpired)
}

func (s *StatsTestSuite) TestTradeResultCountsOnlySells() {
	s.engine.state.trades = []types.Trade{
		{Order: types.PendingOrder{Side: types.OrderSideBuy}, PnL: decimal.Zero},
		s.sellTrade("10"),
		s.sellTrade("-5"),
		s.sellTrade("0"),
	}

	result := s.engine.calculateTradeResult()
	s.Equal(3, result.NumberOfTrades)
	s.Equal(1, result.NumberOfWinningTrades)
	s.Equal(1, result.NumberOfLosingTrades)
	s.InDelta(1.0/3.0, result.WinRate, 1e-12)
}

func (s *StatsTestSuite) TestWinRateZeroWithoutSells() {
	s.engine.state.trades = []types.Trade{
		{Order: types.PendingOrder{Side: types.OrderSideBuy}, PnL: decimal.Zero},
	}

	result := s.engine.calculateTradeResult()
	s.Equal(0, result.NumberOfTrades)
	s.Zero(result.WinRate)
}

func (s *StatsTestSuite) TestTradePnlCombinesRealizedAndUnrealized() {
	s.engine.state.realizedPnL = decimal.NewFromInt(15)
	s.engine.state.trades = []types.Trade{
		s.sellTrade("20"),
		s.sellTrade("-5"),
	}

	st := s.engine.state.symbols["BTCUSDT"]
	st.holdings = append(st.holdings, types.Holding{
		Symbol:     "BTCUSDT",
		Quantity:   decimal.NewFromInt(2),
		EntryPrice: decimal.NewFromInt(100),
	})
	st.lastClose = decimal.NewFromInt(110)

	pnl := s.engine.calculateTradePnl()
	s.True(pnl.RealizedPnL.Equal(decimal.NewFromInt(15)))
	s.True(pnl.UnrealizedPnL.Equal(decimal.NewFromInt(20)))
	s.True(pnl.TotalPnL.Equal(decimal.NewFromInt(35)))
	s.True(pnl.MaximumLoss.Equal(decimal.NewFromInt(-5)))
	s.True(pnl.MaximumProfit.Equal(decimal.NewFromInt(20)))
}

func (s *StatsTestSuite) TestTradePnlExtremesZeroWithoutSells() {
	pnl := s.engine.calculateTradePnl()
	s.True(pnl.MaximumLoss.IsZero())
	s.True(pnl.MaximumProfit.IsZero())
	s.True(pnl.TotalPnL.IsZero())
}
