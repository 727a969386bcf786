package crudquery

import (
	"fmt"

	"github.com/autom8ter/crudquery/errors"
	"github.com/autom8ter/crudquery/util"
	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// positionalFunc converts a positional shorthand, i.e. []any{"age", "gte", 18}, into its structured form
type positionalFunc[T any] func(param Param, items []any) (T, error)

// normalize converts every accepted argument shape into a list of structured values.
// Accepted shapes: T, *T, []T, a positional shorthand ([]any or []string whose first item is a string),
// a list of single values ([]any whose first item is not a string) and map[string]any.
func normalize[T any](param Param, args []any, positional positionalFunc[T]) ([]T, error) {
	var out []T
	for _, arg := range args {
		switch arg := arg.(type) {
		case nil:
			continue
		case []T:
			out = append(out, arg...)
		case []any:
			if isPositional(arg) {
				value, err := positional(param, arg)
				if err != nil {
					return nil, err
				}
				out = append(out, value)
				continue
			}
			for _, item := range arg {
				value, err := single(param, item, positional)
				if err != nil {
					return nil, err
				}
				out = append(out, value)
			}
		default:
			value, err := single(param, arg, positional)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
	}
	return out, nil
}

func single[T any](param Param, arg any, positional positionalFunc[T]) (T, error) {
	var value T
	switch arg := arg.(type) {
	case T:
		return arg, nil
	case *T:
		if arg == nil {
			return value, errors.Invalid(string(param), errors.Required, "nil %s", param)
		}
		return *arg, nil
	case []string:
		return positional(param, lo.Map(arg, func(s string, _ int) any {
			return s
		}))
	case []any:
		if !isPositional(arg) {
			return value, errors.Invalid(string(param), errors.Type, "nested lists are not supported in %s", param)
		}
		return positional(param, arg)
	case map[string]any:
		if err := util.Decode(arg, &value); err != nil {
			return value, errors.Invalid(string(param), errors.Type, "failed to decode %s: %s", param, err.Error())
		}
		return value, nil
	default:
		return value, errors.Invalid(string(param), errors.Type, "unsupported %s argument of type %T", param, arg)
	}
}

func isPositional(items []any) bool {
	if len(items) == 0 {
		return false
	}
	switch items[0].(type) {
	case string:
		return true
	}
	return false
}

// conditionShorthand converts [field, operator, value?]
func conditionShorthand(param Param, items []any) (Condition, error) {
	if len(items) < 2 || len(items) > 3 {
		return Condition{}, errors.Invalid(string(param), errors.Arity, "%s shorthand expects [field, operator, value?], got %d items", param, len(items))
	}
	field, err := cast.ToStringE(items[0])
	if err != nil {
		return Condition{}, errors.Invalid(fmt.Sprintf("%s.field", param), errors.Type, "string expected")
	}
	var operator Operator
	switch op := items[1].(type) {
	case Operator:
		operator = op
	case string:
		operator = Operator(op)
	default:
		return Condition{}, errors.Invalid(fmt.Sprintf("%s.operator", param), errors.Type, "string expected, got %T", items[1])
	}
	c := Condition{Field: field, Operator: operator}
	if len(items) == 3 {
		c.Value = items[2]
	}
	return c, nil
}

// joinShorthand converts [field, select?]
func joinShorthand(param Param, items []any) (JoinSpec, error) {
	if len(items) < 1 || len(items) > 2 {
		return JoinSpec{}, errors.Invalid(string(param), errors.Arity, "join shorthand expects [field, select?], got %d items", len(items))
	}
	field, err := cast.ToStringE(items[0])
	if err != nil {
		return JoinSpec{}, errors.Invalid("join.field", errors.Type, "string expected")
	}
	j := JoinSpec{Field: field}
	if len(items) == 2 && items[1] != nil {
		switch sel := items[1].(type) {
		case []string:
			j.Select = sel
		case []any:
			j.Select = make([]string, 0, len(sel))
			for _, s := range sel {
				str, ok := s.(string)
				if !ok {
					return JoinSpec{}, errors.Invalid("join.select", errors.Type, "list of strings expected, got item of type %T", s)
				}
				j.Select = append(j.Select, str)
			}
		default:
			return JoinSpec{}, errors.Invalid("join.select", errors.Type, "list of strings expected, got %T", items[1])
		}
	}
	return j, nil
}

// sortShorthand converts [field, order]
func sortShorthand(param Param, items []any) (SortSpec, error) {
	if len(items) != 2 {
		return SortSpec{}, errors.Invalid(string(param), errors.Arity, "sort shorthand expects [field, order], got %d items", len(items))
	}
	field, err := cast.ToStringE(items[0])
	if err != nil {
		return SortSpec{}, errors.Invalid("sort.field", errors.Type, "string expected")
	}
	var order SortOrder
	switch o := items[1].(type) {
	case SortOrder:
		order = o
	case string:
		order = SortOrder(o)
	default:
		return SortSpec{}, errors.Invalid("sort.order", errors.Type, "string expected, got %T", items[1])
	}
	return SortSpec{Field: field, Order: order}, nil
}
