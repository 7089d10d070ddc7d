package types

import "math"

// IndicatorKey names a numeric indicator value inside a snapshot.
type IndicatorKey string

const (
	IndicatorKeyEMA7  IndicatorKey = "ema7"
	IndicatorKeyEMA25 IndicatorKey = "ema25"
	IndicatorKeyEMA99 IndicatorKey = "ema99"
	IndicatorKeyBeta  IndicatorKey = "beta"
	IndicatorKeyP5    IndicatorKey = "p5"
	IndicatorKeyP95   IndicatorKey = "p95"
	IndicatorKeyProb  IndicatorKey = "prob"
)

// LabelKey names a categorical indicator value inside a snapshot.
type LabelKey string

const (
	LabelKeyCyclePhase LabelKey = "cycle_phase"
)

// CyclePhase is the market regime label attached to a bar by the upstream
// cycle classifier.
type CyclePhase string

const (
	CyclePhaseConsolidation CyclePhase = "consolidation"
	CyclePhaseBullWarning   CyclePhase = "bull_warning"
	CyclePhaseBullStrong    CyclePhase = "bull_strong"
	CyclePhaseBearWarning   CyclePhase = "bear_warning"
	CyclePhaseBearStrong    CyclePhase = "bear_strong"
)

// IndicatorSnapshot carries the per-bar indicator values for one symbol.
// Numeric values and categorical labels live in separate key spaces.
// Lookups on a nil snapshot or a missing key report not-ok instead of
// panicking, so condition code can treat absent data as not-triggered.
type IndicatorSnapshot struct {
	values map[IndicatorKey]float64
	labels map[LabelKey]string
}

// NewIndicatorSnapshot creates an empty snapshot.
func NewIndicatorSnapshot() *IndicatorSnapshot {
	return &IndicatorSnapshot{
		values: make(map[IndicatorKey]float64),
		labels: make(map[LabelKey]string),
	}
}

// Value returns the numeric value for key. The second return is false when
// the snapshot is nil, the key is absent, or the stored value is NaN or
// infinite.
func (s *IndicatorSnapshot) Value(key IndicatorKey) (float64, bool) {
	if s == nil || s.values == nil {
		return 0, false
	}

	v, ok := s.values[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	return v, true
}

// Label returns the categorical value for key, reporting false when absent.
func (s *IndicatorSnapshot) Label(key LabelKey) (string, bool) {
	if s == nil || s.labels == nil {
		return "", false
	}

	v, ok := s.labels[key]
	if !ok || v == "" {
		return "", false
	}

	return v, true
}

// CyclePhase returns the cycle phase label, reporting false when absent.
func (s *IndicatorSnapshot) CyclePhase() (CyclePhase, bool) {
	v, ok := s.Label(LabelKeyCyclePhase)
	if !ok {
		return "", false
	}

	return CyclePhase(v), true
}

// SetValue stores a numeric value under key.
func (s *IndicatorSnapshot) SetValue(key IndicatorKey, value float64) {
	if s.values == nil {
		s.values = make(map[IndicatorKey]float64)
	}

	s.values[key] = value
}

// DeleteValue removes a numeric value, making the key read as absent.
func (s *IndicatorSnapshot) DeleteValue(key IndicatorKey) {
	if s == nil || s.values == nil {
		return
	}

	delete(s.values, key)
}

// SetLabel stores a categorical value under key.
func (s *IndicatorSnapshot) SetLabel(key LabelKey, value string) {
	if s.labels == nil {
		s.labels = make(map[LabelKey]string)
	}

	s.labels[key] = value
}

// Merge copies every entry of other into the snapshot, overwriting any
// existing key. A nil other is a no-op.
func (s *IndicatorSnapshot) Merge(other *IndicatorSnapshot) {
	if other == nil {
		return
	}

	for k, v := range other.values {
		s.SetValue(k, v)
	}

	for k, v := range other.labels {
		s.SetLabel(k, v)
	}
}

// Clone returns a deep copy of the snapshot. Cloning a nil snapshot
// returns a new empty one.
func (s *IndicatorSnapshot) Clone() *IndicatorSnapshot {
	clone := NewIndicatorSnapshot()
	clone.Merge(s)

	return clone
}
