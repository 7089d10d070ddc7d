package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/gfob-engine/pkg/errors"
	"github.com/shopspring/decimal"
)

type OrderSide string

type OrderStatus string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusFilled  OrderStatus = "FILLED"
	// OrderStatusCancelled marks a buy order whose price was not reached at
	// its valid bar. Its frozen capital has been released.
	OrderStatusCancelled OrderStatus = "CANCELLED"
	// OrderStatusExpired marks a sell order whose price was not reached at
	// its valid bar. The holding it covered stays open.
	OrderStatusExpired  OrderStatus = "EXPIRED"
	OrderStatusRejected OrderStatus = "REJECTED"
)

const (
	OrderReasonEntrySignal       string = "entry_signal"
	OrderReasonStopLoss          string = "stop_loss"
	OrderReasonTakeProfit        string = "take_profit"
	OrderReasonMaxHoldingBars    string = "max_holding_bars"
	OrderReasonPositionLimit     string = "position_limit_reached"
	OrderReasonInsufficientFunds string = "insufficient_funds"
	OrderReasonPriceNotReached   string = "price_not_reached"
)

type Reason struct {
	Reason  string `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	Message string `yaml:"message" json:"message" csv:"message"`
}

// PendingOrder is a limit order that is valid for exactly one bar. An order
// created while processing bar N becomes valid at bar N+1, where it either
// fills or terminates. It is never carried further.
type PendingOrder struct {
	ID     string    `yaml:"id" json:"id" csv:"id" validate:"required,uuid"`
	Symbol string    `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Side   OrderSide `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	// Price is the limit price. Buys fill when the bar's low reaches it,
	// sells when the bar's high reaches it.
	Price    decimal.Decimal `yaml:"price" json:"price" csv:"price"`
	Quantity decimal.Decimal `yaml:"quantity" json:"quantity" csv:"quantity"`
	// CreatedAtBarIndex is the bar during whose processing the order was created.
	CreatedAtBarIndex int `yaml:"created_at_bar_index" json:"created_at_bar_index" csv:"created_at_bar_index"`
	// ValidFromBarIndex is the only bar at which the order may fill.
	ValidFromBarIndex int         `yaml:"valid_from_bar_index" json:"valid_from_bar_index" csv:"valid_from_bar_index"`
	CreatedAt         time.Time   `yaml:"created_at" json:"created_at" csv:"created_at" validate:"required"`
	Reason            Reason      `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	StrategyName      string      `yaml:"strategy_name" json:"strategy_name" csv:"strategy_name" validate:"required"`
	Status            OrderStatus `yaml:"status" json:"status" csv:"status"`
	// HoldingID links a sell order to the holding it closes. Empty for buys.
	HoldingID string `yaml:"holding_id" json:"holding_id" csv:"holding_id"`
	// FrozenAmount is the capital frozen when a buy order was created.
	// Zero for sells.
	FrozenAmount decimal.Decimal `yaml:"frozen_amount" json:"frozen_amount" csv:"frozen_amount"`
}

// Validate validates the PendingOrder struct.
func (o *PendingOrder) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid pending order", err)
	}

	if !o.Price.IsPositive() {
		return errors.Newf(errors.ErrCodeInvalidOrder, "order price must be positive, got %s", o.Price)
	}

	if !o.Quantity.IsPositive() {
		return errors.Newf(errors.ErrCodeInvalidOrder, "order quantity must be positive, got %s", o.Quantity)
	}

	if o.ValidFromBarIndex <= o.CreatedAtBarIndex {
		return errors.Newf(errors.ErrCodeInvalidOrder,
			"order must become valid after its creation bar: created at %d, valid from %d",
			o.CreatedAtBarIndex, o.ValidFromBarIndex)
	}

	if o.Side == OrderSideSell && o.HoldingID == "" {
		return errors.New(errors.ErrCodeInvalidOrder, "sell order must reference the holding it closes")
	}

	return nil
}

// Trade is the execution record of a filled order.
type Trade struct {
	Order            PendingOrder    `csv:"order"`
	ExecutedAt       time.Time       `csv:"executed_at"`
	ExecutedBarIndex int             `csv:"executed_bar_index"`
	ExecutedQty      decimal.Decimal `csv:"executed_qty"`
	ExecutedPrice    decimal.Decimal `csv:"executed_price"`
	// PnL is the realized profit and loss for this trade. Always zero for
	// buys; for sells it is (executed price - entry price) * quantity.
	PnL decimal.Decimal `csv:"pnl"`
}
