package datasource

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/gfob-engine/internal/types"
	"github.com/rxtech-lab/gfob-engine/pkg/errors"
)

// Columns the CSV loader recognizes beyond the candle fields. Any other
// header is read as a numeric indicator under its own name.
const (
	columnTime       = "time"
	columnTimestamp  = "timestamp"
	columnSymbol     = "symbol"
	columnOpen       = "open"
	columnHigh       = "high"
	columnLow        = "low"
	columnClose      = "close"
	columnVolume     = "volume"
	columnCyclePhase = "cycle_phase"
)

// LoadCSVFile reads one symbol's bar series from a CSV file. The header must
// name open/high/low/close plus either a "time" column (RFC3339) or a
// "timestamp" column (unix milliseconds). A "volume" column is optional, a
// "cycle_phase" column is read as the bar's cycle label, and every remaining
// column is read as a numeric indicator keyed by its header. Empty or NaN
// indicator cells mean the value is absent for that bar.
func LoadCSVFile(path string, symbol string) ([]types.Bar, error) {
	if symbol == "" {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "symbol must not be empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "open data file %s", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataParseFailed, err, "read %s", path)
	}
	if len(records) <= 1 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "%s has no data rows", path)
	}

	columns := make(map[string]int)
	for idx, name := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = idx
	}

	for _, required := range []string{columnOpen, columnHigh, columnLow, columnClose} {
		if _, ok := columns[required]; !ok {
			return nil, errors.Newf(errors.ErrCodeDataParseFailed, "%s is missing column %q", path, required)
		}
	}

	timeIdx, hasTime := columns[columnTime]
	timestampIdx, hasTimestamp := columns[columnTimestamp]
	if !hasTime && !hasTimestamp {
		return nil, errors.Newf(errors.ErrCodeDataParseFailed,
			"%s is missing a %q or %q column", path, columnTime, columnTimestamp)
	}

	bars := make([]types.Bar, 0, len(records)-1)
	for row := 1; row < len(records); row++ {
		record := records[row]

		var barTime time.Time
		if hasTime {
			barTime, err = time.Parse(time.RFC3339, cell(record, timeIdx))
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeDataParseFailed, err, "%s row %d time", path, row)
			}
		} else {
			ms, parseErr := strconv.ParseInt(cell(record, timestampIdx), 10, 64)
			if parseErr != nil {
				return nil, errors.Wrapf(errors.ErrCodeDataParseFailed, parseErr, "%s row %d timestamp", path, row)
			}
			barTime = time.UnixMilli(ms).UTC()
		}

		candle := types.Candle{
			Time:   barTime,
			Symbol: symbol,
		}
		if candle.Open, err = parsePrice(record, columns, columnOpen, path, row); err != nil {
			return nil, err
		}
		if candle.High, err = parsePrice(record, columns, columnHigh, path, row); err != nil {
			return nil, err
		}
		if candle.Low, err = parsePrice(record, columns, columnLow, path, row); err != nil {
			return nil, err
		}
		if candle.Close, err = parsePrice(record, columns, columnClose, path, row); err != nil {
			return nil, err
		}
		if volumeIdx, ok := columns[columnVolume]; ok {
			if candle.Volume, err = parseDecimalCell(record, volumeIdx, path, row, columnVolume); err != nil {
				return nil, err
			}
		}

		snapshot := types.NewIndicatorSnapshot()
		for name, idx := range columns {
			switch name {
			case columnTime, columnTimestamp, columnSymbol,
				columnOpen, columnHigh, columnLow, columnClose, columnVolume:
				continue
			case columnCyclePhase:
				if phase := cell(record, idx); phase != "" {
					snapshot.SetLabel(types.LabelKeyCyclePhase, phase)
				}
			default:
				raw := cell(record, idx)
				if raw == "" {
					continue
				}
				value, parseErr := strconv.ParseFloat(raw, 64)
				if parseErr != nil {
					return nil, errors.Wrapf(errors.ErrCodeDataParseFailed, parseErr,
						"%s row %d column %q", path, row, name)
				}
				if math.IsNaN(value) || math.IsInf(value, 0) {
					continue
				}
				snapshot.SetValue(types.IndicatorKey(name), value)
			}
		}

		bars = append(bars, types.Bar{Candle: candle, Indicators: snapshot})
	}

	return bars, nil
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}

	return strings.TrimSpace(record[idx])
}

func parsePrice(record []string, columns map[string]int, name, path string, row int) (decimal.Decimal, error) {
	return parseDecimalCell(record, columns[name], path, row, name)
}

func parseDecimalCell(record []string, idx int, path string, row int, name string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(cell(record, idx))
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(errors.ErrCodeDataParseFailed, err,
			"%s row %d column %q", path, row, name)
	}

	return value, nil
}
