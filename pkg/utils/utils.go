// Package utils holds small numeric helpers shared by the config decode
// paths.
package utils

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/gfob-engine/pkg/errors"
)

// DecimalFromFloat converts a float into a decimal, rejecting NaN and
// infinities instead of panicking the way decimal.NewFromFloat does. Use it
// wherever the float comes from outside the process, e.g. parsed YAML.
func DecimalFromFloat(value float64) (decimal.Decimal, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.Zero, errors.Newf(errors.ErrCodeInvalidParameter, "value must be finite, got %g", value)
	}

	return decimal.NewFromFloat(value), nil
}
