package capital

import (
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/gfob-engine/pkg/errors"
)

// PositionTracker counts open holdings against a fixed ceiling and derives
// the per-position budget from the capital still uncommitted.
//
// PositionTracker is not safe for concurrent use.
type PositionTracker struct {
	maxPositions  int
	totalHoldings int
}

// NewPositionTracker creates a tracker allowing at most maxPositions
// concurrent holdings.
func NewPositionTracker(maxPositions int) (*PositionTracker, error) {
	if maxPositions <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "max positions must be positive, got %d", maxPositions)
	}
	return &PositionTracker{maxPositions: maxPositions}, nil
}

// CanOpen reports whether another holding may be opened.
func (p *PositionTracker) CanOpen() bool {
	return p.totalHoldings < p.maxPositions
}

// Opened records a newly opened holding.
func (p *PositionTracker) Opened() {
	p.totalHoldings++
}

// Closed records a closed holding. Closing with no holdings open is an
// invariant violation and returns a coded error without mutating the count.
func (p *PositionTracker) Closed() error {
	if p.totalHoldings <= 0 {
		return errors.New(errors.ErrCodePositionUnderflow, "no open holdings to close")
	}
	p.totalHoldings--
	return nil
}

// TotalHoldings returns the number of currently open holdings.
func (p *PositionTracker) TotalHoldings() int {
	return p.totalHoldings
}

// MaxPositions returns the holding ceiling.
func (p *PositionTracker) MaxPositions() int {
	return p.maxPositions
}

// DynamicPositionSize splits the given cash evenly across the position slots
// still unfilled: availableCash / (maxPositions - totalHoldings). It returns
// zero when no slot is free or the cash is not positive.
func (p *PositionTracker) DynamicPositionSize(availableCash decimal.Decimal) decimal.Decimal {
	remaining := p.maxPositions - p.totalHoldings
	if remaining <= 0 || !availableCash.IsPositive() {
		return decimal.Zero
	}
	return availableCash.Div(decimal.NewFromInt(int64(remaining)))
}
