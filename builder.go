package crudquery

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/autom8ter/crudquery/errors"
	"github.com/spf13/cast"
)

// RequestQueryBuilder is a utility for creating request query strings via chainable methods.
//
// Every mutating method validates its input before touching the builder's state. The first validation
// failure is kept on the builder, reported by Err and Query, and turns every later mutating call into a no-op.
// A builder must not be shared between goroutines.
type RequestQueryBuilder struct {
	config      *queryConfig
	paramNames  map[Param]string
	queryObject *queryObject
	queryString string
	err         error
}

// NewRequestQueryBuilder creates a new RequestQueryBuilder instance.
// Param names are captured from the options when the builder is created.
func NewRequestQueryBuilder(opts ...QueryOpt) *RequestQueryBuilder {
	b := &RequestQueryBuilder{
		config:      newQueryConfig(opts),
		paramNames:  map[Param]string{},
		queryObject: newQueryObject(),
	}
	b.setParamNames()
	return b
}

// Create creates a RequestQueryBuilder and applies every param in the bag
func Create(params *CreateParams, opts ...QueryOpt) *RequestQueryBuilder {
	b := NewRequestQueryBuilder(opts...)
	if params == nil {
		return b
	}
	return b.createFromParams(params)
}

func (b *RequestQueryBuilder) setParamNames() {
	for param, names := range b.config.current().ParamNamesMap {
		b.paramNames[param] = names.Primary()
	}
}

// Options returns the options observed by the builder
func (b *RequestQueryBuilder) Options() Options {
	return b.config.current().clone()
}

// Err returns the first validation error raised by the builder, if any
func (b *RequestQueryBuilder) Err() error {
	return b.err
}

// Select sets the fields to return. It is a no-op if no fields are given.
func (b *RequestQueryBuilder) Select(fields ...string) *RequestQueryBuilder {
	if b.err != nil || len(fields) == 0 {
		return b
	}
	if err := ValidateFields(fields); err != nil {
		return b.fail(err)
	}
	o := b.config.current()
	for i, f := range fields {
		if err := validateDelims(f, fmt.Sprintf("%s[%d]", ParamFields, i), o.DelimStr); err != nil {
			return b.fail(err)
		}
	}
	b.queryObject.set(b.paramNames[ParamFields], strings.Join(fields, o.DelimStr))
	return b
}

// Search sets the search expression. The expression is serialized as json without further validation.
// A search expression takes precedence over filter and or conditions when the query is serialized.
func (b *RequestQueryBuilder) Search(s SCondition) *RequestQueryBuilder {
	if b.err != nil || s == nil {
		return b
	}
	bits, err := json.Marshal(s)
	if err != nil {
		return b.fail(errors.Invalid(string(ParamSearch), errors.Type, "failed to encode search: %s", err.Error()))
	}
	b.queryObject.set(b.paramNames[ParamSearch], string(bits))
	return b
}

// SetFilter appends and-ed filter condition(s). Each argument may be a Condition, a *Condition, a []Condition,
// a positional shorthand ([]any{field, operator, value?}), a list of those, or a map[string]any.
func (b *RequestQueryBuilder) SetFilter(f ...any) *RequestQueryBuilder {
	return b.setCondition(f, ParamFilter, ModeFilter)
}

// SetOr appends or-ed filter condition(s). It accepts the same arguments as SetFilter.
func (b *RequestQueryBuilder) SetOr(f ...any) *RequestQueryBuilder {
	return b.setCondition(f, ParamOr, ModeOr)
}

// SetJoin appends join clause(s). Each argument may be a JoinSpec, a *JoinSpec, a []JoinSpec,
// a positional shorthand ([]any{field, []string{columns...}}), a list of those, or a map[string]any.
func (b *RequestQueryBuilder) SetJoin(j ...any) *RequestQueryBuilder {
	if b.err != nil {
		return b
	}
	joins, err := normalize(ParamJoin, j, joinShorthand)
	if err != nil {
		return b.fail(err)
	}
	encoded := make([]string, 0, len(joins))
	for _, join := range joins {
		s, err := b.addJoin(join)
		if err != nil {
			return b.fail(err)
		}
		encoded = append(encoded, s)
	}
	if len(encoded) > 0 {
		b.queryObject.appendList(b.paramNames[ParamJoin], encoded...)
	}
	return b
}

// SortBy appends sort clause(s). Each argument may be a SortSpec, a *SortSpec, a []SortSpec,
// a positional shorthand ([]any{field, order}), a list of those, or a map[string]any.
func (b *RequestQueryBuilder) SortBy(s ...any) *RequestQueryBuilder {
	if b.err != nil {
		return b
	}
	sorts, err := normalize(ParamSort, s, sortShorthand)
	if err != nil {
		return b.fail(err)
	}
	encoded := make([]string, 0, len(sorts))
	for _, sort := range sorts {
		str, err := b.addSortBy(sort)
		if err != nil {
			return b.fail(err)
		}
		encoded = append(encoded, str)
	}
	if len(encoded) > 0 {
		b.queryObject.appendList(b.paramNames[ParamSort], encoded...)
	}
	return b
}

// SetLimit sets the max number of results. It must be >= 1.
func (b *RequestQueryBuilder) SetLimit(n int) *RequestQueryBuilder {
	return b.setNumeric(n, ParamLimit)
}

// SetOffset sets the number of results to skip. It must be >= 0.
func (b *RequestQueryBuilder) SetOffset(n int) *RequestQueryBuilder {
	return b.setNumeric(n, ParamOffset)
}

// SetPage sets the page of results. It must be >= 1.
func (b *RequestQueryBuilder) SetPage(n int) *RequestQueryBuilder {
	return b.setNumeric(n, ParamPage)
}

// ResetCache asks the server to bypass its result cache for this request
func (b *RequestQueryBuilder) ResetCache() *RequestQueryBuilder {
	return b.setNumeric(0, ParamCache)
}

// SetIncludeDeleted includes soft deleted resources when n is 1
func (b *RequestQueryBuilder) SetIncludeDeleted(n int) *RequestQueryBuilder {
	return b.setNumeric(n, ParamIncludeDeleted)
}

// Cond validates a single condition and returns its encoded form (field||operator||value) without changing the builder.
// f may be a Condition, a *Condition, a positional shorthand or a map[string]any. An empty mode means ModeSearch.
func (b *RequestQueryBuilder) Cond(f any, mode CondMode) (string, error) {
	if mode == "" {
		mode = ModeSearch
	}
	c, err := single(Param(mode), f, conditionShorthand)
	if err != nil {
		return "", err
	}
	return b.encodeCondition(c, mode)
}

// Query serializes the builder's state into a query string, percent-encoding keys and values if encode is true.
// If a search expression is set, filter and or conditions are dropped.
func (b *RequestQueryBuilder) Query(encode bool) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	if _, ok := b.queryObject.get(b.paramNames[ParamSearch]); ok {
		b.queryObject.del(b.paramNames[ParamFilter])
		b.queryObject.del(b.paramNames[ParamOr])
	}
	b.queryString = b.queryObject.stringify(encode)
	return b.queryString, nil
}

// QueryString returns the result of the last call to Query
func (b *RequestQueryBuilder) QueryString() string {
	return b.queryString
}

// Values returns a copy of the builder's state keyed by wire name
func (b *RequestQueryBuilder) Values() url.Values {
	return b.queryObject.urlValues()
}

func (b *RequestQueryBuilder) encodeCondition(c Condition, mode CondMode) (string, error) {
	if err := ValidateCondition(c, mode); err != nil {
		return "", err
	}
	o := b.config.current()
	if err := validateDelims(c.Field, fmt.Sprintf("%s.field", mode), o.Delim); err != nil {
		return "", err
	}
	encoded := c.Field + o.Delim + string(c.Operator)
	if hasValue(c.Value) {
		value, err := encodeValue(c.Value, o.DelimStr, fmt.Sprintf("%s.value", mode))
		if err != nil {
			return "", err
		}
		encoded += o.Delim + value
	}
	return encoded, nil
}

func (b *RequestQueryBuilder) addJoin(j JoinSpec) (string, error) {
	if err := ValidateJoin(j); err != nil {
		return "", err
	}
	o := b.config.current()
	if err := validateDelims(j.Field, "join.field", o.Delim); err != nil {
		return "", err
	}
	if len(j.Select) == 0 {
		return j.Field, nil
	}
	for i, col := range j.Select {
		if err := validateDelims(col, fmt.Sprintf("join.select[%d]", i), o.Delim, o.DelimStr); err != nil {
			return "", err
		}
	}
	return j.Field + o.Delim + strings.Join(j.Select, o.DelimStr), nil
}

func (b *RequestQueryBuilder) addSortBy(s SortSpec) (string, error) {
	if err := ValidateSort(s); err != nil {
		return "", err
	}
	o := b.config.current()
	if err := validateDelims(s.Field, "sort.field", o.DelimStr); err != nil {
		return "", err
	}
	return s.Field + o.DelimStr + string(s.Order), nil
}

func (b *RequestQueryBuilder) createFromParams(params *CreateParams) *RequestQueryBuilder {
	b.Select(params.Fields...)
	b.Search(params.Search)
	b.SetFilter(params.Filter)
	b.SetOr(params.Or)
	b.SetJoin(params.Join)
	if params.Limit != nil {
		b.SetLimit(*params.Limit)
	}
	if params.Offset != nil {
		b.SetOffset(*params.Offset)
	}
	if params.Page != nil {
		b.SetPage(*params.Page)
	}
	b.SortBy(params.Sort)
	if params.ResetCache {
		b.ResetCache()
	}
	if params.IncludeDeleted != nil {
		b.SetIncludeDeleted(*params.IncludeDeleted)
	}
	return b
}

func (b *RequestQueryBuilder) setCondition(f []any, param Param, mode CondMode) *RequestQueryBuilder {
	if b.err != nil {
		return b
	}
	conditions, err := normalize(param, f, conditionShorthand)
	if err != nil {
		return b.fail(err)
	}
	encoded := make([]string, 0, len(conditions))
	for _, c := range conditions {
		s, err := b.encodeCondition(c, mode)
		if err != nil {
			return b.fail(err)
		}
		encoded = append(encoded, s)
	}
	if len(encoded) > 0 {
		b.queryObject.appendList(b.paramNames[param], encoded...)
	}
	return b
}

func (b *RequestQueryBuilder) setNumeric(n int, param Param) *RequestQueryBuilder {
	if b.err != nil {
		return b
	}
	if err := ValidateNumeric(n, param); err != nil {
		return b.fail(err)
	}
	b.queryObject.set(b.paramNames[param], n)
	return b
}

func (b *RequestQueryBuilder) fail(err error) *RequestQueryBuilder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// encodeValue renders a condition value. List values are joined with delimStr, so no item may contain it.
func encodeValue(value any, delimStr string, path string) (string, error) {
	items, ok := listValue(value)
	if !ok {
		s, err := encodeScalar(value)
		if err != nil {
			return "", errors.Invalid(path, errors.Type, "failed to encode %s: %s", path, err.Error())
		}
		return s, nil
	}
	rendered := make([]string, 0, len(items))
	for i, item := range items {
		s, err := encodeScalar(item)
		if err != nil {
			return "", errors.Invalid(path, errors.Type, "failed to encode %s[%d]: %s", path, i, err.Error())
		}
		if err := validateDelims(s, fmt.Sprintf("%s[%d]", path, i), delimStr); err != nil {
			return "", err
		}
		rendered = append(rendered, s)
	}
	return strings.Join(rendered, delimStr), nil
}

func encodeScalar(value any) (string, error) {
	switch value := value.(type) {
	case time.Time:
		return value.Format(time.RFC3339Nano), nil
	case *time.Time:
		return value.Format(time.RFC3339Nano), nil
	case []byte:
		return string(value), nil
	}
	if s, err := cast.ToStringE(value); err == nil {
		return s, nil
	}
	bits, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(bits), nil
}
