// Package datasource provides the ordered candle and indicator series the
// engine consumes: a small read interface, an aligned in-memory
// implementation, and a CSV loader for building series from files.
package datasource

import (
	"github.com/rxtech-lab/gfob-engine/internal/types"
)

// DataSource serves aligned bar series for one or more symbols. Every symbol
// carries the same number of bars with matching timestamps per index, so one
// bar index addresses the same moment across all symbols.
type DataSource interface {
	// Symbols returns the symbols the source carries, ordered alphabetically.
	Symbols() []string
	// BarCount returns the number of bars per symbol.
	BarCount() int
	// BarAt returns the bar for the symbol at the given index.
	BarAt(symbol string, index int) (types.Bar, error)
}
