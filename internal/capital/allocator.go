// Package capital tracks backtest capital across the available and frozen
// buckets and enforces the position ceiling used for dynamic sizing.
package capital

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/gfob-engine/internal/types"
	"github.com/rxtech-lab/gfob-engine/pkg/errors"
)

// Allocator partitions capital into an available bucket and a frozen bucket.
// Creating a buy order freezes its cost, a fill settles the frozen amount into
// the holding, and a terminated order unfreezes it. Sell proceeds flow back to
// available through AddProfit. Every mutation is recorded in an append-only
// journal together with the balances after the movement.
//
// Allocator is not safe for concurrent use.
type Allocator struct {
	initial   decimal.Decimal
	available decimal.Decimal
	frozen    decimal.Decimal
	journal   []types.CapitalTransaction
	seq       int
}

// NewAllocator creates an allocator holding the given initial capital in the
// available bucket.
func NewAllocator(initial decimal.Decimal) (*Allocator, error) {
	if !initial.IsPositive() {
		return nil, errors.Newf(errors.ErrCodeInvalidCapital, "initial capital must be positive, got %s", initial)
	}
	return &Allocator{
		initial:   initial,
		available: initial,
		frozen:    decimal.Zero,
	}, nil
}

// Available returns the capital free to back new buy orders.
func (a *Allocator) Available() decimal.Decimal {
	return a.available
}

// Frozen returns the capital reserved by pending buy orders.
func (a *Allocator) Frozen() decimal.Decimal {
	return a.frozen
}

// InitialCapital returns the capital the allocator started with.
func (a *Allocator) InitialCapital() decimal.Decimal {
	return a.initial
}

// Equity values the account at available + frozen + holdingsMarketValue.
func (a *Allocator) Equity(holdingsMarketValue decimal.Decimal) decimal.Decimal {
	return a.available.Add(a.frozen).Add(holdingsMarketValue)
}

// Freeze moves amount from available to frozen. It returns false and mutates
// nothing when amount is not positive or exceeds the available balance.
func (a *Allocator) Freeze(amount decimal.Decimal, barIndex int, at time.Time, note string) bool {
	if !amount.IsPositive() {
		return false
	}
	if amount.GreaterThan(a.available) {
		return false
	}
	a.available = a.available.Sub(amount)
	a.frozen = a.frozen.Add(amount)
	a.record(types.TransactionTypeFreeze, amount, barIndex, at, note)
	return true
}

// Unfreeze moves min(amount, frozen) back to available and returns the amount
// actually moved. A non-positive amount moves nothing. Zero movements are not
// journaled.
func (a *Allocator) Unfreeze(amount decimal.Decimal, barIndex int, at time.Time, note string) decimal.Decimal {
	moved := a.clampToFrozen(amount)
	if !moved.IsPositive() {
		return decimal.Zero
	}
	a.frozen = a.frozen.Sub(moved)
	a.available = a.available.Add(moved)
	a.record(types.TransactionTypeUnfreeze, moved, barIndex, at, note)
	return moved
}

// Settle removes min(amount, frozen) from the frozen bucket without touching
// available, returning the amount actually settled. The settled capital now
// lives in the holding it paid for. Zero movements are not journaled.
func (a *Allocator) Settle(amount decimal.Decimal, barIndex int, at time.Time, note string) decimal.Decimal {
	settled := a.clampToFrozen(amount)
	if !settled.IsPositive() {
		return decimal.Zero
	}
	a.frozen = a.frozen.Sub(settled)
	a.record(types.TransactionTypeSettle, settled, barIndex, at, note)
	return settled
}

// AddProfit adds amount, which may be negative, directly to available. It is
// used to credit sell proceeds (principal plus realized PnL). A zero amount
// is a no-op.
func (a *Allocator) AddProfit(amount decimal.Decimal, barIndex int, at time.Time, note string) {
	if amount.IsZero() {
		return
	}
	a.available = a.available.Add(amount)
	a.record(types.TransactionTypeProfit, amount, barIndex, at, note)
}

// Transactions returns a copy of the capital journal in append order.
func (a *Allocator) Transactions() []types.CapitalTransaction {
	out := make([]types.CapitalTransaction, len(a.journal))
	copy(out, a.journal)
	return out
}

func (a *Allocator) clampToFrozen(amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	if amount.GreaterThan(a.frozen) {
		return a.frozen
	}
	return amount
}

func (a *Allocator) record(txType types.TransactionType, amount decimal.Decimal, barIndex int, at time.Time, note string) {
	a.seq++
	a.journal = append(a.journal, types.CapitalTransaction{
		Seq:            a.seq,
		BarIndex:       barIndex,
		Timestamp:      at,
		Type:           txType,
		Amount:         amount,
		AvailableAfter: a.available,
		FrozenAfter:    a.frozen,
		Note:           note,
	})
}
