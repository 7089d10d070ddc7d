package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/gfob-engine/internal/capital"
	"github.com/rxtech-lab/gfob-engine/internal/rolling"
	"github.com/rxtech-lab/gfob-engine/internal/types"
	"github.com/rxtech-lab/gfob-engine/pkg/errors"
)

// idNamespace scopes the v5 UUIDs the engine derives for orders, holdings and
// runs. Deriving IDs from run-local counters instead of random v4 UUIDs keeps
// two runs over identical inputs bit-identical.
var idNamespace = uuid.NameSpaceOID

// symbolState is the per-symbol mutable container: at most one pending buy,
// one pending sell per holding, and the open holdings. Only the runner for
// this symbol touches it.
type symbolState struct {
	symbol       string
	pendingBuy   optional.Option[types.PendingOrder]
	pendingSells []types.PendingOrder
	holdings     []types.Holding
	calculator   *rolling.Calculator
	// lastClose is the close of the most recently processed bar, used to
	// mark open holdings for the equity curve.
	lastClose decimal.Decimal
}

// setPendingBuy stores the pending buy order. A second pending buy for the
// same symbol is an invariant violation and is rejected loudly.
func (st *symbolState) setPendingBuy(order types.PendingOrder) error {
	if st.pendingBuy.IsSome() {
		return errors.Newf(errors.ErrCodeDuplicatePendingBuy,
			"symbol %s already has a pending buy order", st.symbol)
	}

	st.pendingBuy = optional.Some(order)

	return nil
}

// removeHolding removes and returns the holding with the given ID.
func (st *symbolState) removeHolding(id string) (types.Holding, bool) {
	for i, holding := range st.holdings {
		if holding.ID == id {
			st.holdings = append(st.holdings[:i], st.holdings[i+1:]...)

			return holding, true
		}
	}

	return types.Holding{}, false
}

func (st *symbolState) holdingsCostBasis() decimal.Decimal {
	total := decimal.Zero
	for i := range st.holdings {
		total = total.Add(st.holdings[i].CostBasis())
	}

	return total
}

func (st *symbolState) holdingsMarketValue() decimal.Decimal {
	total := decimal.Zero
	for i := range st.holdings {
		total = total.Add(st.holdings[i].MarketValue(st.lastClose))
	}

	return total
}

// runState owns everything one run mutates: the shared capital pool, the
// position ceiling, per-symbol states, and the append-only journals the
// results are built from.
type runState struct {
	allocator   *capital.Allocator
	tracker     *capital.PositionTracker
	symbols     map[string]*symbolState
	symbolOrder []string
	// orders holds every order that reached a terminal status.
	orders []types.PendingOrder
	trades []types.Trade
	equity []types.EquityPoint
	// holdingBars records, per closed holding, how many bars it was held.
	holdingBars []int
	realizedPnL decimal.Decimal
	idCounter   int
}

func newRunState(config BacktestEngineV1Config, symbols []string) (*runState, error) {
	allocator, err := capital.NewAllocator(config.InitialCapital)
	if err != nil {
		return nil, err
	}

	tracker, err := capital.NewPositionTracker(config.MaxPositions)
	if err != nil {
		return nil, err
	}

	states := make(map[string]*symbolState, len(symbols))

	for _, symbol := range symbols {
		calculator, err := rolling.NewCalculator(config.Rolling)
		if err != nil {
			return nil, err
		}

		states[symbol] = &symbolState{
			symbol:     symbol,
			pendingBuy: optional.None[types.PendingOrder](),
			calculator: calculator,
		}
	}

	order := make([]string, len(symbols))
	copy(order, symbols)

	return &runState{
		allocator:   allocator,
		tracker:     tracker,
		symbols:     states,
		symbolOrder: order,
		realizedPnL: decimal.Zero,
	}, nil
}

// nextID derives a deterministic ID for the given kind ("order", "holding").
func (s *runState) nextID(kind, symbol string, barIndex int) string {
	s.idCounter++

	name := fmt.Sprintf("%s:%s:%d:%d", kind, symbol, barIndex, s.idCounter)

	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}

func (s *runState) recordOrder(order types.PendingOrder) {
	s.orders = append(s.orders, order)
}

func (s *runState) recordTrade(trade types.Trade) {
	s.trades = append(s.trades, trade)
}

func (s *runState) recordClosedHolding(barsHeld int) {
	s.holdingBars = append(s.holdingBars, barsHeld)
}

func (s *runState) holdingsCostBasis() decimal.Decimal {
	total := decimal.Zero
	for _, symbol := range s.symbolOrder {
		total = total.Add(s.symbols[symbol].holdingsCostBasis())
	}

	return total
}

func (s *runState) holdingsMarketValue() decimal.Decimal {
	total := decimal.Zero
	for _, symbol := range s.symbolOrder {
		total = total.Add(s.symbols[symbol].holdingsMarketValue())
	}

	return total
}

// openHoldings returns all open holdings in symbol order.
func (s *runState) openHoldings() []types.Holding {
	var holdings []types.Holding
	for _, symbol := range s.symbolOrder {
		holdings = append(holdings, s.symbols[symbol].holdings...)
	}

	return holdings
}

// appendEquityPoint records the portfolio equity once per bar, after every
// symbol has been processed. Holdings are marked at their symbol's close.
func (s *runState) appendEquityPoint(barIndex int, at time.Time) {
	holdingsValue := s.holdingsMarketValue()

	s.equity = append(s.equity, types.EquityPoint{
		BarIndex:      barIndex,
		Timestamp:     at,
		Equity:        s.allocator.Equity(holdingsValue),
		Available:     s.allocator.Available(),
		Frozen:        s.allocator.Frozen(),
		HoldingsValue: holdingsValue,
	})
}

// checkConservation asserts the capital conservation identity at a bar
// boundary: available + frozen + holdings cost basis must equal the initial
// capital plus all realized PnL. The identity is exact in decimal arithmetic,
// so any mismatch is a bug, not rounding.
func (s *runState) checkConservation() error {
	lhs := s.allocator.Available().Add(s.allocator.Frozen()).Add(s.holdingsCostBasis())
	rhs := s.allocator.InitialCapital().Add(s.realizedPnL)

	if !lhs.Equal(rhs) {
		return errors.Newf(errors.ErrCodeConservationViolated,
			"available %s + frozen %s + holdings cost %s = %s, want initial %s + realized %s = %s",
			s.allocator.Available(), s.allocator.Frozen(), s.holdingsCostBasis(), lhs,
			s.allocator.InitialCapital(), s.realizedPnL, rhs)
	}

	return nil
}
