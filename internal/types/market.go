package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is a single OHLCV bar for one symbol.
type Candle struct {
	Time   time.Time       `csv:"time"`
	Symbol string          `csv:"symbol"`
	Open   decimal.Decimal `csv:"open"`
	High   decimal.Decimal `csv:"high"`
	Low    decimal.Decimal `csv:"low"`
	Close  decimal.Decimal `csv:"close"`
	Volume decimal.Decimal `csv:"volume"`
}

// Bar couples one candle with the indicator snapshot aligned to it by bar
// index. Indicators may be nil when no upstream values exist for the bar.
type Bar struct {
	Candle     Candle
	Indicators *IndicatorSnapshot
}

// IsValid reports whether the candle carries a usable price range:
// all prices positive and low <= open, close <= high.
func (c *Candle) IsValid() bool {
	if !c.Open.IsPositive() || !c.High.IsPositive() || !c.Low.IsPositive() || !c.Close.IsPositive() {
		return false
	}

	if c.Low.GreaterThan(c.High) {
		return false
	}

	if c.Open.LessThan(c.Low) || c.Open.GreaterThan(c.High) {
		return false
	}

	if c.Close.LessThan(c.Low) || c.Close.GreaterThan(c.High) {
		return false
	}

	return true
}
