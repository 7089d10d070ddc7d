package datasource

import (
	"sort"
	"time"

	"github.com/rxtech-lab/gfob-engine/internal/types"
	"github.com/rxtech-lab/gfob-engine/pkg/errors"
)

// InMemoryDataSource holds fully loaded bar series, one per symbol, and
// validates on insertion that all series align: same length, same timestamp
// at every index, strictly increasing times.
type InMemoryDataSource struct {
	series   map[string][]types.Bar
	timeline []time.Time
}

// NewInMemoryDataSource creates an empty source.
func NewInMemoryDataSource() *InMemoryDataSource {
	return &InMemoryDataSource{
		series: make(map[string][]types.Bar),
	}
}

// AddSeries adds the bar series for one symbol. The first series added fixes
// the timeline; every later series must match it bar for bar.
func (s *InMemoryDataSource) AddSeries(symbol string, bars []types.Bar) error {
	if symbol == "" {
		return errors.New(errors.ErrCodeInvalidParameter, "symbol must not be empty")
	}

	if _, exists := s.series[symbol]; exists {
		return errors.Newf(errors.ErrCodeInvalidParameter, "series for symbol %s already added", symbol)
	}

	if len(bars) == 0 {
		return errors.Newf(errors.ErrCodeDataNotFound, "series for symbol %s is empty", symbol)
	}

	owned := make([]types.Bar, len(bars))
	copy(owned, bars)

	for i := range owned {
		if owned[i].Candle.Symbol == "" {
			owned[i].Candle.Symbol = symbol
		} else if owned[i].Candle.Symbol != symbol {
			return errors.Newf(errors.ErrCodeDataMisaligned,
				"bar %d of series %s carries symbol %s", i, symbol, owned[i].Candle.Symbol)
		}

		if i > 0 && !owned[i].Candle.Time.After(owned[i-1].Candle.Time) {
			return errors.Newf(errors.ErrCodeDataOutOfOrder,
				"series %s is not strictly increasing at bar %d: %s does not follow %s",
				symbol, i, owned[i].Candle.Time, owned[i-1].Candle.Time)
		}
	}

	if s.timeline == nil {
		timeline := make([]time.Time, len(owned))
		for i, bar := range owned {
			timeline[i] = bar.Candle.Time
		}
		s.timeline = timeline
	} else {
		if len(owned) != len(s.timeline) {
			return errors.Newf(errors.ErrCodeDataMisaligned,
				"series %s has %d bars, expected %d", symbol, len(owned), len(s.timeline))
		}
		for i, bar := range owned {
			if !bar.Candle.Time.Equal(s.timeline[i]) {
				return errors.Newf(errors.ErrCodeDataMisaligned,
					"series %s bar %d at %s does not align with %s",
					symbol, i, bar.Candle.Time, s.timeline[i])
			}
		}
	}

	s.series[symbol] = owned

	return nil
}

// Symbols returns the loaded symbols ordered alphabetically.
func (s *InMemoryDataSource) Symbols() []string {
	symbols := make([]string, 0, len(s.series))
	for symbol := range s.series {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	return symbols
}

// BarCount returns the number of bars per symbol.
func (s *InMemoryDataSource) BarCount() int {
	return len(s.timeline)
}

// BarAt returns the bar for the symbol at the given index.
func (s *InMemoryDataSource) BarAt(symbol string, index int) (types.Bar, error) {
	bars, exists := s.series[symbol]
	if !exists {
		return types.Bar{}, errors.Newf(errors.ErrCodeSymbolNotFound, "no series for symbol %s", symbol)
	}

	if index < 0 || index >= len(bars) {
		return types.Bar{}, errors.Newf(errors.ErrCodeDataNotFound,
			"bar index %d out of range for symbol %s (%d bars)", index, symbol, len(bars))
	}

	return bars[index], nil
}
