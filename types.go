package crudquery

import (
	"strings"

	"github.com/samber/lo"
)

// Operator is a comparison operator used in a condition
type Operator string

const (
	// OpEq matches on equality
	OpEq Operator = "eq"
	// OpNe matches on inequality
	OpNe Operator = "ne"
	// OpGt matches on greater than
	OpGt Operator = "gt"
	// OpLt matches on less than
	OpLt Operator = "lt"
	// OpGte matches on greater than or equal to
	OpGte Operator = "gte"
	// OpLte matches on less than or equal to
	OpLte Operator = "lte"
	// OpStarts matches on a string prefix
	OpStarts Operator = "starts"
	// OpEnds matches on a string suffix
	OpEnds Operator = "ends"
	// OpCont matches on text containing a substring
	OpCont Operator = "cont"
	// OpExcl matches on text not containing a substring
	OpExcl Operator = "excl"
	// OpIn matches on a value being one of a list of values
	OpIn Operator = "in"
	// OpNotIn matches on a value not being one of a list of values
	OpNotIn Operator = "notin"
	// OpIsNull matches on null values
	OpIsNull Operator = "isnull"
	// OpNotNull matches on non null values
	OpNotNull Operator = "notnull"
	// OpBetween matches on a value within an inclusive range
	OpBetween Operator = "between"

	// OpEqL is a case insensitive OpEq
	OpEqL Operator = "eqL"
	// OpNeL is a case insensitive OpNe
	OpNeL Operator = "neL"
	// OpStartsL is a case insensitive OpStarts
	OpStartsL Operator = "startsL"
	// OpEndsL is a case insensitive OpEnds
	OpEndsL Operator = "endsL"
	// OpContL is a case insensitive OpCont
	OpContL Operator = "contL"
	// OpExclL is a case insensitive OpExcl
	OpExclL Operator = "exclL"
	// OpInL is a case insensitive OpIn
	OpInL Operator = "inL"
	// OpNotInL is a case insensitive OpNotIn
	OpNotInL Operator = "notinL"

	// OpAnd combines nested search conditions with a logical and
	OpAnd Operator = "$and"
	// OpOr combines nested search conditions with a logical or
	OpOr Operator = "$or"
	// OpNot negates a nested search condition
	OpNot Operator = "$not"
)

var leafOperators = []Operator{
	OpEq, OpNe, OpGt, OpLt, OpGte, OpLte,
	OpStarts, OpEnds, OpCont, OpExcl,
	OpIn, OpNotIn, OpIsNull, OpNotNull, OpBetween,
	OpEqL, OpNeL, OpStartsL, OpEndsL, OpContL, OpExclL, OpInL, OpNotInL,
}

var combinatorOperators = []Operator{OpAnd, OpOr, OpNot}

// Canonical strips the optional '$' prefix of a leaf operator
func (o Operator) Canonical() Operator {
	if lo.Contains(combinatorOperators, o) {
		return o
	}
	return Operator(strings.TrimPrefix(string(o), "$"))
}

// IsLeaf returns true if the operator compares a field against a value
func (o Operator) IsLeaf() bool {
	return lo.Contains(leafOperators, o.Canonical())
}

// IsCombinator returns true if the operator composes nested search conditions
func (o Operator) IsCombinator() bool {
	return lo.Contains(combinatorOperators, o)
}

// RequiresValue returns false for the null check operators
func (o Operator) RequiresValue() bool {
	switch o.Canonical() {
	case OpIsNull, OpNotNull:
		return false
	}
	return true
}

// MinArity returns the minimum number of list items the operator's value must have, or 0 if the value is a scalar
func (o Operator) MinArity() int {
	switch o.Canonical() {
	case OpIn, OpNotIn, OpInL, OpNotInL, OpAnd, OpOr:
		return 1
	case OpBetween:
		return 2
	}
	return 0
}

// CondMode is the context a condition is validated in
type CondMode string

const (
	// ModeFilter validates a condition of the filter param
	ModeFilter CondMode = "filter"
	// ModeOr validates a condition of the or param
	ModeOr CondMode = "or"
	// ModeSearch validates a condition of a search expression. Combinator operators are allowed.
	ModeSearch CondMode = "search"
)

// Condition is a single field/operator/value predicate
type Condition struct {
	// Field is the field to compare. Dotted fields address attributes of joined relations.
	Field string `json:"field" validate:"required"`
	// Operator compares the field against the value
	Operator Operator `json:"operator" validate:"required"`
	// Value is the value to compare against. It is omitted for the null check operators.
	Value any `json:"value,omitempty"`
}

// JoinSpec declares a relation to join
type JoinSpec struct {
	// Field is the relation to join
	Field string `json:"field" validate:"required"`
	// Select restricts the columns returned from the joined relation. nil selects every column.
	Select []string `json:"select,omitempty" validate:"omitempty,dive,required"`
}

// SortOrder is the direction of a sort clause
type SortOrder string

const (
	// ASC indicates ascending order
	ASC SortOrder = "ASC"
	// DESC indicates descending order
	DESC SortOrder = "DESC"
)

// SortSpec orders results by a field in a given direction
type SortSpec struct {
	// Field is the field to sort on
	Field string `json:"field" validate:"required"`
	// Order is the sort direction
	Order SortOrder `json:"order" validate:"required,oneof=ASC DESC"`
}

// SCondition is a search expression: a json boolean expression tree of conditions, i.e.
// {"$or": [{"name": {"$cont": "john"}}, {"age": {"$gte": 18}}]}
type SCondition map[string]any

// CreateParams holds every query param in structured form
type CreateParams struct {
	Fields         []string    `json:"fields,omitempty"`
	Search         SCondition  `json:"search,omitempty"`
	Filter         []Condition `json:"filter,omitempty"`
	Or             []Condition `json:"or,omitempty"`
	Join           []JoinSpec  `json:"join,omitempty"`
	Sort           []SortSpec  `json:"sort,omitempty"`
	Limit          *int        `json:"limit,omitempty"`
	Offset         *int        `json:"offset,omitempty"`
	Page           *int        `json:"page,omitempty"`
	ResetCache     bool        `json:"resetCache,omitempty"`
	IncludeDeleted *int        `json:"includeDeleted,omitempty"`
}
