package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType labels one movement in the capital journal.
type TransactionType string

const (
	// TransactionTypeFreeze moves capital from available to frozen when a
	// buy order is created.
	TransactionTypeFreeze TransactionType = "FREEZE"
	// TransactionTypeUnfreeze returns frozen capital to available when a
	// buy order terminates without filling.
	TransactionTypeUnfreeze TransactionType = "UNFREEZE"
	// TransactionTypeSettle consumes frozen capital when a buy order fills.
	TransactionTypeSettle TransactionType = "SETTLE"
	// TransactionTypeProfit adds sell proceeds (principal plus PnL, which
	// may be negative) back to available capital.
	TransactionTypeProfit TransactionType = "PROFIT"
)

// CapitalTransaction is one append-only journal entry recording a capital
// movement together with the balances after it was applied.
type CapitalTransaction struct {
	Seq       int             `yaml:"seq" json:"seq" csv:"seq"`
	BarIndex  int             `yaml:"bar_index" json:"bar_index" csv:"bar_index"`
	Timestamp time.Time       `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
	Type      TransactionType `yaml:"type" json:"type" csv:"type"`
	Amount    decimal.Decimal `yaml:"amount" json:"amount" csv:"amount"`
	// AvailableAfter and FrozenAfter are the balances after this entry.
	AvailableAfter decimal.Decimal `yaml:"available_after" json:"available_after" csv:"available_after"`
	FrozenAfter    decimal.Decimal `yaml:"frozen_after" json:"frozen_after" csv:"frozen_after"`
	Note           string          `yaml:"note" json:"note" csv:"note"`
}
