package condition

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/gfob-engine/internal/types"
	"github.com/shopspring/decimal"
)

// CyclePhaseIs triggers when the bar's cycle phase label equals the given
// phase exactly.
type CyclePhaseIs struct {
	phase types.CyclePhase
}

func NewCyclePhaseIs(phase types.CyclePhase) *CyclePhaseIs {
	return &CyclePhaseIs{phase: phase}
}

func (c *CyclePhaseIs) Name() string {
	return "cycle_phase_is"
}

func (c *CyclePhaseIs) Evaluate(ctx Context) Result {
	phase, ok := ctx.Indicators.CyclePhase()
	if !ok {
		return NotTriggered(c.Name())
	}

	if phase != c.phase {
		return NotTriggered(c.Name())
	}

	result := Triggered(c.Name(), optional.None[decimal.Decimal](),
		fmt.Sprintf("cycle phase is %s", phase))
	result.Metadata = map[string]string{
		MetadataKeyPhase: string(phase),
	}

	return result
}

// CyclePhaseIn triggers when the bar's cycle phase label is one of the given
// phases.
type CyclePhaseIn struct {
	phases []types.CyclePhase
}

func NewCyclePhaseIn(phases ...types.CyclePhase) *CyclePhaseIn {
	return &CyclePhaseIn{phases: phases}
}

func (c *CyclePhaseIn) Name() string {
	return "cycle_phase_in"
}

func (c *CyclePhaseIn) Evaluate(ctx Context) Result {
	phase, ok := ctx.Indicators.CyclePhase()
	if !ok {
		return NotTriggered(c.Name())
	}

	for _, candidate := range c.phases {
		if phase == candidate {
			result := Triggered(c.Name(), optional.None[decimal.Decimal](),
				fmt.Sprintf("cycle phase %s is in the watched set", phase))
			result.Metadata = map[string]string{
				MetadataKeyPhase: string(phase),
			}

			return result
		}
	}

	return NotTriggered(c.Name())
}
