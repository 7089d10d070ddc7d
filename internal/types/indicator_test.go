package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndicatorSnapshotValue(t *testing.T) {
	snapshot := NewIndicatorSnapshot()
	snapshot.SetValue(IndicatorKeyEMA25, 101.5)

	v, ok := snapshot.Value(IndicatorKeyEMA25)
	assert.True(t, ok)
	assert.Equal(t, 101.5, v)

	_, ok = snapshot.Value(IndicatorKeyEMA7)
	assert.False(t, ok)
}

func TestIndicatorSnapshotNaNValueIsMissing(t *testing.T) {
	snapshot := NewIndicatorSnapshot()
	snapshot.SetValue(IndicatorKeyBeta, math.NaN())

	_, ok := snapshot.Value(IndicatorKeyBeta)
	assert.False(t, ok)
}

func TestIndicatorSnapshotInfValueIsMissing(t *testing.T) {
	snapshot := NewIndicatorSnapshot()
	snapshot.SetValue(IndicatorKeyBeta, math.Inf(1))
	snapshot.SetValue(IndicatorKeyProb, math.Inf(-1))

	_, ok := snapshot.Value(IndicatorKeyBeta)
	assert.False(t, ok)

	_, ok = snapshot.Value(IndicatorKeyProb)
	assert.False(t, ok)
}

func TestIndicatorSnapshotDeleteValue(t *testing.T) {
	snapshot := NewIndicatorSnapshot()
	snapshot.SetValue(IndicatorKeyProb, 42.0)

	snapshot.DeleteValue(IndicatorKeyProb)

	_, ok := snapshot.Value(IndicatorKeyProb)
	assert.False(t, ok)

	var nilSnapshot *IndicatorSnapshot
	nilSnapshot.DeleteValue(IndicatorKeyProb)
}

func TestIndicatorSnapshotNilIsSafe(t *testing.T) {
	var snapshot *IndicatorSnapshot

	_, ok := snapshot.Value(IndicatorKeyProb)
	assert.False(t, ok)

	_, ok = snapshot.Label(LabelKeyCyclePhase)
	assert.False(t, ok)

	_, ok = snapshot.CyclePhase()
	assert.False(t, ok)
}

func TestIndicatorSnapshotLabel(t *testing.T) {
	snapshot := NewIndicatorSnapshot()
	snapshot.SetLabel(LabelKeyCyclePhase, string(CyclePhaseBullStrong))

	label, ok := snapshot.Label(LabelKeyCyclePhase)
	assert.True(t, ok)
	assert.Equal(t, "bull_strong", label)

	phase, ok := snapshot.CyclePhase()
	assert.True(t, ok)
	assert.Equal(t, CyclePhaseBullStrong, phase)
}

func TestIndicatorSnapshotEmptyLabelIsMissing(t *testing.T) {
	snapshot := NewIndicatorSnapshot()
	snapshot.SetLabel(LabelKeyCyclePhase, "")

	_, ok := snapshot.Label(LabelKeyCyclePhase)
	assert.False(t, ok)
}

func TestIndicatorSnapshotMergeOverwrites(t *testing.T) {
	base := NewIndicatorSnapshot()
	base.SetValue(IndicatorKeyEMA25, 100)
	base.SetValue(IndicatorKeyBeta, 0.5)
	base.SetLabel(LabelKeyCyclePhase, string(CyclePhaseConsolidation))

	overlay := NewIndicatorSnapshot()
	overlay.SetValue(IndicatorKeyEMA25, 102)
	overlay.SetValue(IndicatorKeyProb, 3.0)

	base.Merge(overlay)

	v, ok := base.Value(IndicatorKeyEMA25)
	assert.True(t, ok)
	assert.Equal(t, 102.0, v)

	v, ok = base.Value(IndicatorKeyBeta)
	assert.True(t, ok)
	assert.Equal(t, 0.5, v)

	v, ok = base.Value(IndicatorKeyProb)
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	label, ok := base.Label(LabelKeyCyclePhase)
	assert.True(t, ok)
	assert.Equal(t, "consolidation", label)
}

func TestIndicatorSnapshotMergeNilIsNoop(t *testing.T) {
	base := NewIndicatorSnapshot()
	base.SetValue(IndicatorKeyEMA7, 10)

	base.Merge(nil)

	v, ok := base.Value(IndicatorKeyEMA7)
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)
}

func TestIndicatorSnapshotCloneIsIndependent(t *testing.T) {
	original := NewIndicatorSnapshot()
	original.SetValue(IndicatorKeyEMA25, 100)

	clone := original.Clone()
	clone.SetValue(IndicatorKeyEMA25, 200)

	v, ok := original.Value(IndicatorKeyEMA25)
	assert.True(t, ok)
	assert.Equal(t, 100.0, v)
}

func TestIndicatorSnapshotCloneNil(t *testing.T) {
	var snapshot *IndicatorSnapshot

	clone := snapshot.Clone()
	assert.NotNil(t, clone)

	_, ok := clone.Value(IndicatorKeyEMA25)
	assert.False(t, ok)
}
