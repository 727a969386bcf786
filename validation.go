package crudquery

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/autom8ter/crudquery/errors"
	"github.com/autom8ter/crudquery/util"
	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// ValidateFields validates a list of selected fields. Every field must be a non-empty, optionally dot-delimited string.
func ValidateFields(fields []string) error {
	for i, f := range fields {
		if err := validateFieldName(f, fmt.Sprintf("%s[%d]", ParamFields, i)); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCondition validates a filter, or, or search condition
func ValidateCondition(c Condition, mode CondMode) error {
	if !lo.Contains([]CondMode{ModeFilter, ModeOr, ModeSearch}, mode) {
		return errors.Invalid(string(mode), errors.Type, "invalid condition mode '%s'", mode)
	}
	if err := scoped(util.ValidateStruct(&c), string(mode)); err != nil {
		return err
	}
	if err := validateFieldName(c.Field, fmt.Sprintf("%s.field", mode)); err != nil {
		return err
	}
	allowed := c.Operator.IsLeaf() || (mode == ModeSearch && c.Operator.IsCombinator())
	if !allowed {
		return errors.Invalid(fmt.Sprintf("%s.operator", mode), errors.NotAllowed, "invalid operator '%s' in %s condition", c.Operator, mode)
	}
	if c.Operator.RequiresValue() && !hasValue(c.Value) {
		return errors.Invalid(fmt.Sprintf("%s.value", mode), errors.Required, "operator '%s' of field '%s' requires a value", c.Operator, c.Field)
	}
	if arity := c.Operator.MinArity(); arity > 0 {
		items, ok := listValue(c.Value)
		if !ok {
			return errors.Invalid(fmt.Sprintf("%s.value", mode), errors.Type, "operator '%s' of field '%s' requires a list value", c.Operator, c.Field)
		}
		if len(items) < arity {
			return errors.Invalid(fmt.Sprintf("%s.value", mode), errors.Arity, "operator '%s' of field '%s' requires at least %d values, got %d", c.Operator, c.Field, arity, len(items))
		}
	}
	return nil
}

// ValidateJoin validates a join clause
func ValidateJoin(j JoinSpec) error {
	if err := scoped(util.ValidateStruct(&j), string(ParamJoin)); err != nil {
		return err
	}
	if err := validateFieldName(j.Field, "join.field"); err != nil {
		return err
	}
	if j.Select != nil && len(j.Select) == 0 {
		return errors.Invalid("join.select", errors.Required, "select of join '%s' must be a non-empty list", j.Field)
	}
	for i, s := range j.Select {
		if err := validateFieldName(s, fmt.Sprintf("join.select[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSort validates a sort clause. Order must be exactly ASC or DESC.
func ValidateSort(s SortSpec) error {
	if err := scoped(util.ValidateStruct(&s), string(ParamSort)); err != nil {
		return err
	}
	return validateFieldName(s.Field, "sort.field")
}

// ValidateNumeric validates the value of a numeric param. limit and page must be >= 1,
// offset, cache and includeDeleted must be >= 0.
func ValidateNumeric(n any, p Param) error {
	if !p.IsNumeric() {
		return errors.Invalid(string(p), errors.Type, "'%s' is not a numeric param", p)
	}
	if !isNumber(n) {
		return errors.Invalid(string(p), errors.Type, "invalid %s: number expected, got %T", p, n)
	}
	f, err := cast.ToFloat64E(n)
	if err != nil {
		return errors.Invalid(string(p), errors.Type, "invalid %s: %s", p, err.Error())
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return errors.Invalid(string(p), errors.Type, "invalid %s: integer expected, got %v", p, n)
	}
	lowest := 0.0
	if p == ParamLimit || p == ParamPage {
		lowest = 1
	}
	if f < lowest {
		return errors.Invalid(string(p), errors.Range, "invalid %s: must be >= %v, got %v", p, lowest, n)
	}
	return nil
}

func validateFieldName(name string, path string) error {
	if name == "" {
		return errors.Invalid(path, errors.Required, "invalid %s: non-empty string expected", path)
	}
	if lo.Contains(strings.Split(name, "."), "") {
		return errors.Invalid(path, errors.Syntax, "invalid %s: '%s' contains an empty segment", path, name)
	}
	return nil
}

// validateDelims rejects names that the given delimiters would split apart when the query is decoded
func validateDelims(name string, path string, delims ...string) error {
	for _, d := range delims {
		if d != "" && strings.Contains(name, d) {
			return errors.Invalid(path, errors.Syntax, "invalid %s: '%s' contains the delimiter '%s'", path, name, d)
		}
	}
	return nil
}

func scoped(err error, scope string) error {
	if err == nil {
		return nil
	}
	e := errors.Extract(err)
	if e.Field != "" {
		e.Field = fmt.Sprintf("%s.%s", scope, e.Field)
	}
	return e
}

func isNumber(n any) bool {
	if n == nil {
		return false
	}
	switch reflect.TypeOf(n).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// hasValue returns false for nil, empty strings and lists that are empty or contain an empty item
func hasValue(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return hasValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return false
		}
		if rv.Len() == 0 {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			if !hasValue(rv.Index(i).Interface()) {
				return false
			}
		}
		return true
	case reflect.Map:
		return !rv.IsNil()
	}
	return true
}

// listValue returns the items of a slice or array value. A []byte is a scalar.
func listValue(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		items = append(items, rv.Index(i).Interface())
	}
	return items, true
}
