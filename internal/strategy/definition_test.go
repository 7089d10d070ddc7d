package strategy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxtech-lab/gfob-engine/internal/condition"
	"github.com/rxtech-lab/gfob-engine/internal/types"
	"github.com/rxtech-lab/gfob-engine/pkg/errors"
)

func validDefinition() Definition {
	return Definition{
		ID:        "test_strategy",
		Name:      "Test Strategy",
		Direction: DirectionLong,
		Entry:     condition.NewBetaPositive(),
		Exits: []ExitRule{{
			Condition: condition.NewMaxHoldingBars(10),
			PriceMode: PriceModeClose,
			Reason:    types.OrderReasonMaxHoldingBars,
		}},
		OrderDiscount: decimal.NewFromFloat(0.001),
	}
}

func TestDefinitionValidate(t *testing.T) {
	valid := validDefinition()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(d *Definition)
	}{
		{name: "missing id", mutate: func(d *Definition) { d.ID = "" }},
		{name: "missing name", mutate: func(d *Definition) { d.Name = "" }},
		{name: "unknown direction", mutate: func(d *Definition) { d.Direction = "sideways" }},
		{name: "nil entry", mutate: func(d *Definition) { d.Entry = nil }},
		{name: "no exit rules", mutate: func(d *Definition) { d.Exits = nil }},
		{name: "nil exit condition", mutate: func(d *Definition) { d.Exits[0].Condition = nil }},
		{name: "unknown price mode", mutate: func(d *Definition) { d.Exits[0].PriceMode = "limit" }},
		{name: "missing exit reason", mutate: func(d *Definition) { d.Exits[0].Reason = "" }},
		{name: "negative discount", mutate: func(d *Definition) { d.OrderDiscount = decimal.NewFromFloat(-0.1) }},
		{name: "discount of one", mutate: func(d *Definition) { d.OrderDiscount = decimal.NewFromInt(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			tt.mutate(&def)

			err := def.Validate()
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidStrategy, errors.GetCode(err))
		})
	}
}
