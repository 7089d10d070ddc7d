package engine

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/gfob-engine/internal/condition"
	"github.com/rxtech-lab/gfob-engine/internal/strategy"
	"github.com/rxtech-lab/gfob-engine/internal/types"
	"github.com/rxtech-lab/gfob-engine/pkg/errors"
)

// matchSellOrders runs phase 1 of a bar: every pending sell valid at this bar
// either fills (the high reached the limit) or expires. An expired sell keeps
// its holding open; the next triggered exit rule creates a fresh order.
func (b *BacktestEngineV1) matchSellOrders(st *symbolState, bar types.Bar, barIndex int) error {
	if len(st.pendingSells) == 0 {
		return nil
	}

	var retained []types.PendingOrder

	for _, order := range st.pendingSells {
		// Orders created during this bar are not valid yet and are skipped
		// untouched.
		if order.ValidFromBarIndex > barIndex {
			retained = append(retained, order)

			continue
		}

		if bar.Candle.High.GreaterThanOrEqual(order.Price) {
			if err := b.fillSellOrder(st, order, bar, barIndex); err != nil {
				return err
			}

			continue
		}

		order.Status = types.OrderStatusExpired
		b.state.recordOrder(order)

		b.log.Debug("Sell order expired",
			zap.String("symbol", st.symbol),
			zap.String("order_id", order.ID),
			zap.Int("bar", barIndex),
			zap.String("price", order.Price.String()),
		)
	}

	st.pendingSells = retained

	return nil
}

func (b *BacktestEngineV1) fillSellOrder(st *symbolState, order types.PendingOrder, bar types.Bar, barIndex int) error {
	holding, ok := st.removeHolding(order.HoldingID)
	if !ok {
		return errors.Newf(errors.ErrCodeInternal,
			"sell order %s references unknown holding %s", order.ID, order.HoldingID)
	}

	proceeds := order.Price.Mul(holding.Quantity)
	pnl := order.Price.Sub(holding.EntryPrice).Mul(holding.Quantity)

	b.state.allocator.AddProfit(proceeds, barIndex, bar.Candle.Time,
		fmt.Sprintf("sell %s %s", st.symbol, order.Reason.Reason))

	if err := b.state.tracker.Closed(); err != nil {
		return err
	}

	b.state.realizedPnL = b.state.realizedPnL.Add(pnl)
	b.state.recordClosedHolding(barIndex - holding.EntryBarIndex)

	order.Status = types.OrderStatusFilled
	b.state.recordOrder(order)
	b.state.recordTrade(types.Trade{
		Order:            order,
		ExecutedAt:       bar.Candle.Time,
		ExecutedBarIndex: barIndex,
		ExecutedQty:      holding.Quantity,
		ExecutedPrice:    order.Price,
		PnL:              pnl,
	})

	b.log.Debug("Sell order filled",
		zap.String("symbol", st.symbol),
		zap.String("order_id", order.ID),
		zap.Int("bar", barIndex),
		zap.String("price", order.Price.String()),
		zap.String("pnl", pnl.String()),
	)

	return nil
}

// matchBuyOrder runs phase 2 of a bar. A buy valid at this bar fills when the
// low reached the limit, otherwise it is cancelled and its capital unfrozen.
// A buy never survives its valid bar.
func (b *BacktestEngineV1) matchBuyOrder(st *symbolState, bar types.Bar, barIndex int) error {
	if st.pendingBuy.IsNone() {
		return nil
	}

	order := st.pendingBuy.Unwrap()
	if order.ValidFromBarIndex > barIndex {
		return nil
	}

	st.pendingBuy = optional.None[types.PendingOrder]()

	if bar.Candle.Low.LessThanOrEqual(order.Price) {
		return b.fillBuyOrder(st, order, bar, barIndex)
	}

	b.cancelBuyOrder(st, order, bar, barIndex, types.OrderReasonPriceNotReached)

	return nil
}

func (b *BacktestEngineV1) fillBuyOrder(st *symbolState, order types.PendingOrder, bar types.Bar, barIndex int) error {
	// Re-check the ceiling at fill time: the slot free when the order was
	// created may have been taken by another symbol since.
	if !b.state.tracker.CanOpen() {
		b.cancelBuyOrder(st, order, bar, barIndex, types.OrderReasonPositionLimit)

		return nil
	}

	b.state.allocator.Settle(order.FrozenAmount, barIndex, bar.Candle.Time,
		fmt.Sprintf("buy %s order %s filled", st.symbol, order.ID))

	holding := types.Holding{
		ID:            b.state.nextID("holding", st.symbol, barIndex),
		Symbol:        st.symbol,
		Quantity:      order.Quantity,
		EntryPrice:    order.Price,
		EntryBarIndex: barIndex,
		EntryTime:     bar.Candle.Time,
		OrderID:       order.ID,
	}
	st.holdings = append(st.holdings, holding)
	b.state.tracker.Opened()

	order.Status = types.OrderStatusFilled
	b.state.recordOrder(order)
	b.state.recordTrade(types.Trade{
		Order:            order,
		ExecutedAt:       bar.Candle.Time,
		ExecutedBarIndex: barIndex,
		ExecutedQty:      order.Quantity,
		ExecutedPrice:    order.Price,
		PnL:              decimal.Zero,
	})

	b.log.Debug("Buy order filled",
		zap.String("symbol", st.symbol),
		zap.String("order_id", order.ID),
		zap.Int("bar", barIndex),
		zap.String("price", order.Price.String()),
		zap.String("quantity", order.Quantity.String()),
	)

	return nil
}

func (b *BacktestEngineV1) cancelBuyOrder(st *symbolState, order types.PendingOrder, bar types.Bar, barIndex int, cause string) {
	b.state.allocator.Unfreeze(order.FrozenAmount, barIndex, bar.Candle.Time,
		fmt.Sprintf("buy %s order %s cancelled", st.symbol, order.ID))

	order.Status = types.OrderStatusCancelled
	order.Reason.Message = cause
	b.state.recordOrder(order)

	b.log.Debug("Buy order cancelled",
		zap.String("symbol", st.symbol),
		zap.String("order_id", order.ID),
		zap.Int("bar", barIndex),
		zap.String("cause", cause),
	)
}

// createSellOrders runs phase 3: each holding with no pending sell is tested
// against the exit rules in priority order, and the first triggered rule
// prices a sell order valid at the next bar.
func (b *BacktestEngineV1) createSellOrders(st *symbolState, def strategy.Definition, bar types.Bar, barIndex int) {
	if len(st.holdings) == 0 {
		return
	}

	covered := make(map[string]bool, len(st.pendingSells))
	for _, order := range st.pendingSells {
		covered[order.HoldingID] = true
	}

	for _, holding := range st.holdings {
		if covered[holding.ID] {
			continue
		}

		ctx := condition.Context{
			Candle:     bar.Candle,
			Indicators: bar.Indicators,
			Timestamp:  bar.Candle.Time,
			BarIndex:   barIndex,
			Holding:    optional.Some(holding),
		}

		for _, rule := range def.Exits {
			result := rule.Condition.Evaluate(ctx)
			if !result.Triggered {
				continue
			}

			price := strategy.SellLimitPrice(rule, result, ctx)
			if !price.IsPositive() {
				price = bar.Candle.Close

				b.log.Warn("Sell limit price fell back to close",
					zap.String("symbol", st.symbol),
					zap.String("rule", rule.Reason),
					zap.Int("bar", barIndex),
				)
			}

			order := types.PendingOrder{
				ID:                b.state.nextID("order", st.symbol, barIndex),
				Symbol:            st.symbol,
				Side:              types.OrderSideSell,
				Price:             price,
				Quantity:          holding.Quantity,
				CreatedAtBarIndex: barIndex,
				ValidFromBarIndex: barIndex + 1,
				CreatedAt:         bar.Candle.Time,
				Reason:            types.Reason{Reason: rule.Reason, Message: result.Reason},
				StrategyName:      def.ID,
				Status:            types.OrderStatusPending,
				HoldingID:         holding.ID,
			}
			st.pendingSells = append(st.pendingSells, order)

			b.log.Debug("Sell order created",
				zap.String("symbol", st.symbol),
				zap.String("order_id", order.ID),
				zap.String("holding_id", holding.ID),
				zap.Int("bar", barIndex),
				zap.String("price", price.String()),
				zap.String("rule", rule.Reason),
			)

			break
		}
	}
}

// createBuyOrder runs phase 4: when no buy is pending, a position slot is
// free and the entry condition triggers, one buy order is created and its
// cost frozen. A failed freeze or a zero-sized position is a logged skip,
// re-evaluated next bar.
func (b *BacktestEngineV1) createBuyOrder(st *symbolState, def strategy.Definition, bar types.Bar, barIndex int) error {
	if st.pendingBuy.IsSome() {
		return nil
	}

	if !b.state.tracker.CanOpen() {
		return nil
	}

	ctx := condition.Context{
		Candle:     bar.Candle,
		Indicators: bar.Indicators,
		Timestamp:  bar.Candle.Time,
		BarIndex:   barIndex,
		Holding:    optional.None[types.Holding](),
	}

	result := def.Entry.Evaluate(ctx)
	if !result.Triggered {
		return nil
	}

	base := bar.Candle.Close
	if result.Price.IsSome() {
		base = result.Price.Unwrap()
	}

	limit := strategy.CalculateOrderPrice(base, def.OrderDiscount)
	if !limit.IsPositive() {
		b.log.Warn("Buy order skipped: non-positive limit price",
			zap.String("symbol", st.symbol),
			zap.Int("bar", barIndex),
			zap.String("base", base.String()),
		)

		return nil
	}

	size := b.state.tracker.DynamicPositionSize(b.state.allocator.Available())
	if !size.IsPositive() {
		b.log.Debug("Buy order skipped: no available capital",
			zap.String("symbol", st.symbol),
			zap.Int("bar", barIndex),
		)

		return nil
	}

	quantity := size.Div(limit).Truncate(int32(b.config.DecimalPrecision))
	if !quantity.IsPositive() {
		b.log.Debug("Buy order skipped: quantity truncates to zero",
			zap.String("symbol", st.symbol),
			zap.Int("bar", barIndex),
			zap.String("limit", limit.String()),
		)

		return nil
	}

	amount := limit.Mul(quantity)

	order := types.PendingOrder{
		ID:                b.state.nextID("order", st.symbol, barIndex),
		Symbol:            st.symbol,
		Side:              types.OrderSideBuy,
		Price:             limit,
		Quantity:          quantity,
		CreatedAtBarIndex: barIndex,
		ValidFromBarIndex: barIndex + 1,
		CreatedAt:         bar.Candle.Time,
		Reason:            types.Reason{Reason: types.OrderReasonEntrySignal, Message: result.Reason},
		StrategyName:      def.ID,
		Status:            types.OrderStatusPending,
		FrozenAmount:      amount,
	}

	if !b.state.allocator.Freeze(amount, barIndex, bar.Candle.Time,
		fmt.Sprintf("buy %s order %s", st.symbol, order.ID)) {
		b.log.Debug("Buy order skipped: freeze failed",
			zap.String("symbol", st.symbol),
			zap.Int("bar", barIndex),
			zap.String("amount", amount.String()),
		)

		return nil
	}

	b.log.Debug("Buy order created",
		zap.String("symbol", st.symbol),
		zap.String("order_id", order.ID),
		zap.Int("bar", barIndex),
		zap.String("limit", limit.String()),
		zap.String("quantity", quantity.String()),
	)

	return st.setPendingBuy(order)
}
