package condition

import (
	"fmt"
	"strings"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// AndCondition triggers only when every sub-condition triggers.
type AndCondition struct {
	conditions []Condition
}

// NewAnd combines conditions so that all of them must trigger. Requiring the
// first two as explicit arguments makes a one-condition and-group impossible
// to construct.
func NewAnd(first, second Condition, rest ...Condition) *AndCondition {
	conditions := make([]Condition, 0, 2+len(rest))
	conditions = append(conditions, first, second)
	conditions = append(conditions, rest...)

	return &AndCondition{conditions: conditions}
}

func (a *AndCondition) Name() string {
	return "and(" + joinNames(a.conditions) + ")"
}

// Evaluate runs the sub-conditions left to right and stops at the first one
// that does not trigger. When all trigger, the last sub-result's price,
// reason, and metadata are propagated.
func (a *AndCondition) Evaluate(ctx Context) Result {
	var last Result

	for _, c := range a.conditions {
		last = c.Evaluate(ctx)
		if !last.Triggered {
			return NotTriggered(a.Name())
		}
	}

	return Result{
		Triggered:     true,
		Price:         last.Price,
		Reason:        fmt.Sprintf("AND satisfied: %s", last.Reason),
		ConditionName: a.Name(),
		Metadata:      last.Metadata,
	}
}

// OrCondition triggers when any sub-condition triggers.
type OrCondition struct {
	conditions []Condition
}

// NewOr combines conditions so that any one of them triggering is enough.
// Requiring the first two as explicit arguments makes a one-condition
// or-group impossible to construct.
func NewOr(first, second Condition, rest ...Condition) *OrCondition {
	conditions := make([]Condition, 0, 2+len(rest))
	conditions = append(conditions, first, second)
	conditions = append(conditions, rest...)

	return &OrCondition{conditions: conditions}
}

func (o *OrCondition) Name() string {
	return "or(" + joinNames(o.conditions) + ")"
}

// Evaluate runs the sub-conditions left to right and stops at the first one
// that triggers, propagating its price, reason, and metadata.
func (o *OrCondition) Evaluate(ctx Context) Result {
	for _, c := range o.conditions {
		result := c.Evaluate(ctx)
		if result.Triggered {
			return Result{
				Triggered:     true,
				Price:         result.Price,
				Reason:        fmt.Sprintf("OR satisfied: %s", result.Reason),
				ConditionName: o.Name(),
				Metadata:      result.Metadata,
			}
		}
	}

	return NotTriggered(o.Name())
}

// NotCondition inverts the wrapped condition. It never carries a price.
type NotCondition struct {
	condition Condition
}

// NewNot inverts a condition.
func NewNot(condition Condition) *NotCondition {
	return &NotCondition{condition: condition}
}

func (n *NotCondition) Name() string {
	return "not(" + n.condition.Name() + ")"
}

func (n *NotCondition) Evaluate(ctx Context) Result {
	if n.condition.Evaluate(ctx).Triggered {
		return NotTriggered(n.Name())
	}

	return Triggered(n.Name(), optional.None[decimal.Decimal](),
		fmt.Sprintf("%s did not trigger", n.condition.Name()))
}

func joinNames(conditions []Condition) string {
	names := make([]string, 0, len(conditions))
	for _, c := range conditions {
		names = append(names, c.Name())
	}

	return strings.Join(names, ", ")
}
