package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding represents one filled buy that has not been sold yet. Each holding
// is closed by exactly one sell, so a symbol can appear in several holdings
// at once.
type Holding struct {
	ID         string          `yaml:"id" json:"id" csv:"id"`
	Symbol     string          `yaml:"symbol" json:"symbol" csv:"symbol"`
	Quantity   decimal.Decimal `yaml:"quantity" json:"quantity" csv:"quantity"`
	EntryPrice decimal.Decimal `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	// EntryBarIndex is the bar at which the opening buy filled.
	EntryBarIndex int       `yaml:"entry_bar_index" json:"entry_bar_index" csv:"entry_bar_index"`
	EntryTime     time.Time `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	// OrderID is the buy order that opened this holding.
	OrderID string `yaml:"order_id" json:"order_id" csv:"order_id"`
}

// CostBasis returns the capital settled into this holding: entry price times
// quantity.
func (h *Holding) CostBasis() decimal.Decimal {
	return h.EntryPrice.Mul(h.Quantity)
}

// MarketValue returns the holding's value at the given price.
func (h *Holding) MarketValue(price decimal.Decimal) decimal.Decimal {
	return price.Mul(h.Quantity)
}

// UnrealizedPnL returns the profit the holding would realize if closed at
// the given price.
func (h *Holding) UnrealizedPnL(price decimal.Decimal) decimal.Decimal {
	return h.MarketValue(price).Sub(h.CostBasis())
}
