package crudquery

import (
	"github.com/samber/lo"
)

// Expression returns the condition as a search expression leaf, i.e. {"age": {"$gte": 18}}.
// The null check operators are rendered with a true value.
func (c Condition) Expression() SCondition {
	var value any = true
	if c.Operator.RequiresValue() {
		value = c.Value
	}
	return SCondition{
		c.Field: map[string]any{
			"$" + string(c.Operator.Canonical()): value,
		},
	}
}

// Expression merges the search, filter and or params into a single search expression.
// A search expression wins over filter and or. Filter conditions are and-ed, or conditions are or-ed,
// and when both are present the two groups are or-ed together.
func (r *ParsedRequest) Expression() SCondition {
	if r.Search != nil {
		return r.Search
	}
	toExpression := func(c Condition, _ int) any {
		return c.Expression()
	}
	filter := lo.Map(r.Filter, toExpression)
	or := lo.Map(r.Or, toExpression)
	switch {
	case len(filter) > 0 && len(or) > 0:
		if len(filter) == 1 && len(or) == 1 {
			return SCondition{string(OpOr): []any{filter[0], or[0]}}
		}
		return SCondition{string(OpOr): []any{
			SCondition{string(OpAnd): filter},
			SCondition{string(OpAnd): or},
		}}
	case len(filter) > 0:
		return SCondition{string(OpAnd): filter}
	case len(or) > 0:
		return SCondition{string(OpOr): or}
	}
	return SCondition{}
}
