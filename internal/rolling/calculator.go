// Package rolling implements the causal statistics chain evaluated once per
// bar: a set of EMAs, an EWMA mean/variance of the relative deviation from
// the primary EMA, and an empirical percentile of the standardized deviation
// against a fixed-size window of past values. The percentile for a bar is
// always computed before that bar's own value enters the window, so no
// statistic ever sees its own data point.
package rolling

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/gfob-engine/pkg/errors"
)

// Config holds the calculator parameters.
type Config struct {
	// EmaSpans are the EMA spans to maintain, e.g. 7, 25, 99.
	EmaSpans []int `yaml:"ema_spans" json:"ema_spans"`
	// PrimarySpan selects which EMA the deviation is measured against.
	// Must be one of EmaSpans.
	PrimarySpan int `yaml:"primary_span" json:"primary_span"`
	// EwmaSpan is the span of the EWMA mean/variance of the deviation.
	EwmaSpan int `yaml:"ewma_span" json:"ewma_span"`
	// WindowSize is the length of the standardized-deviation history the
	// percentile is computed against.
	WindowSize int `yaml:"window_size" json:"window_size"`
	// Epsilon floors the EWMA variance before the square root and is the
	// cutoff below which a standard deviation counts as zero.
	Epsilon float64 `yaml:"epsilon" json:"epsilon"`
}

// DefaultConfig returns the standard parameter set.
func DefaultConfig() Config {
	return Config{
		EmaSpans:    []int{7, 25, 99},
		PrimarySpan: 25,
		EwmaSpan:    50,
		WindowSize:  100,
		Epsilon:     1e-12,
	}
}

// Validate rejects parameter sets the calculator cannot run with.
func (c Config) Validate() error {
	if len(c.EmaSpans) == 0 {
		return errors.New(errors.ErrCodeInvalidSpan, "at least one ema span is required")
	}

	seen := make(map[int]bool, len(c.EmaSpans))

	primaryFound := false

	for _, span := range c.EmaSpans {
		if span <= 0 {
			return errors.Newf(errors.ErrCodeInvalidSpan, "ema span must be positive, got %d", span)
		}

		if seen[span] {
			return errors.Newf(errors.ErrCodeInvalidSpan, "duplicate ema span %d", span)
		}

		seen[span] = true

		if span == c.PrimarySpan {
			primaryFound = true
		}
	}

	if !primaryFound {
		return errors.Newf(errors.ErrCodeInvalidSpan,
			"primary span %d is not one of the configured ema spans", c.PrimarySpan)
	}

	if c.EwmaSpan <= 0 {
		return errors.Newf(errors.ErrCodeInvalidSpan, "ewma span must be positive, got %d", c.EwmaSpan)
	}

	if c.WindowSize <= 0 {
		return errors.Newf(errors.ErrCodeInvalidWindow, "window size must be positive, got %d", c.WindowSize)
	}

	if c.Epsilon <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "epsilon must be positive, got %g", c.Epsilon)
	}

	return nil
}

// Snapshot is the calculator output for one bar.
type Snapshot struct {
	// Emas maps each configured span to its EMA value.
	Emas map[int]float64
	// Deviation is the relative deviation of the close from the primary EMA.
	Deviation float64
	// Standardized is the deviation standardized by the EWMA mean/sigma.
	Standardized float64
	// Prob is the percentile (0..100) of Standardized against the window of
	// past values. None while the window has not filled yet.
	Prob optional.Option[float64]
}

type emaState struct {
	span        int
	alpha       float64
	value       float64
	initialized bool
}

// alpha follows the pandas ewm convention: 2/(span+1).
func newEmaState(span int) *emaState {
	return &emaState{
		span:  span,
		alpha: 2.0 / (float64(span) + 1.0),
	}
}

func (e *emaState) update(close float64) float64 {
	if !e.initialized {
		e.value = close
		e.initialized = true

		return e.value
	}

	e.value = e.alpha*close + (1-e.alpha)*e.value

	return e.value
}

// Calculator is the per-symbol statistics state. It is not safe for
// concurrent use; the engine drives one calculator per symbol from a single
// goroutine.
type Calculator struct {
	config    Config
	emas      []*emaState
	ewmaAlpha float64

	mean            float64
	variance        float64
	ewmaInitialized bool

	window []float64
}

// NewCalculator builds a calculator, rejecting invalid configuration before
// any bar is processed.
func NewCalculator(config Config) (*Calculator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Calculator{
		config:    config,
		ewmaAlpha: 2.0 / (float64(config.EwmaSpan) + 1.0),
		window:    make([]float64, 0, config.WindowSize),
	}

	for _, span := range config.EmaSpans {
		c.emas = append(c.emas, newEmaState(span))
	}

	return c, nil
}

// Update feeds one close price through the chain and returns the bar's
// snapshot. The percentile is evaluated against the window as it stood
// before this call; the new standardized value is appended afterwards.
func (c *Calculator) Update(close float64) Snapshot {
	emas := make(map[int]float64, len(c.emas))

	var primary float64

	for _, e := range c.emas {
		v := e.update(close)
		emas[e.span] = v

		if e.span == c.config.PrimarySpan {
			primary = v
		}
	}

	var deviation float64
	if primary != 0 {
		deviation = (close - primary) / primary
	}

	if !c.ewmaInitialized {
		c.mean = deviation
		c.variance = 0
		c.ewmaInitialized = true
	} else {
		alpha := c.ewmaAlpha
		c.mean = alpha*deviation + (1-alpha)*c.mean
		diff := deviation - c.mean
		c.variance = alpha*diff*diff + (1-alpha)*c.variance
	}

	variance := c.variance
	if variance < c.config.Epsilon {
		variance = c.config.Epsilon
	}

	sigma := math.Sqrt(variance)

	var standardized float64
	if sigma >= c.config.Epsilon {
		standardized = (deviation - c.mean) / sigma
	}

	prob := optional.None[float64]()
	if len(c.window) >= c.config.WindowSize {
		count := 0

		for _, x := range c.window {
			if x <= standardized {
				count++
			}
		}

		prob = optional.Some(100 * float64(count) / float64(c.config.WindowSize))
	}

	c.window = append(c.window, standardized)
	if len(c.window) > c.config.WindowSize {
		c.window = c.window[1:]
	}

	return Snapshot{
		Emas:         emas,
		Deviation:    deviation,
		Standardized: standardized,
		Prob:         prob,
	}
}

// Reset clears all accumulated state so the calculator can be reused for a
// fresh run with the same configuration.
func (c *Calculator) Reset() {
	for i, e := range c.emas {
		c.emas[i] = newEmaState(e.span)
	}

	c.mean = 0
	c.variance = 0
	c.ewmaInitialized = false
	c.window = make([]float64, 0, c.config.WindowSize)
}
