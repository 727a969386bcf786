package crudquery

import (
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/autom8ter/crudquery/errors"
	"github.com/tidwall/gjson"
)

// ParsedRequest is the structured form of a request query
type ParsedRequest struct {
	Fields         []string    `json:"fields,omitempty"`
	Search         SCondition  `json:"search,omitempty"`
	Filter         []Condition `json:"filter,omitempty"`
	Or             []Condition `json:"or,omitempty"`
	Join           []JoinSpec  `json:"join,omitempty"`
	Sort           []SortSpec  `json:"sort,omitempty"`
	Limit          *int        `json:"limit,omitempty"`
	Offset         *int        `json:"offset,omitempty"`
	Page           *int        `json:"page,omitempty"`
	Cache          *int        `json:"cache,omitempty"`
	IncludeDeleted *int        `json:"includeDeleted,omitempty"`
}

// CreateParams converts the parsed request back into a builder param bag
func (r *ParsedRequest) CreateParams() *CreateParams {
	return &CreateParams{
		Fields:         r.Fields,
		Search:         r.Search,
		Filter:         r.Filter,
		Or:             r.Or,
		Join:           r.Join,
		Sort:           r.Sort,
		Limit:          r.Limit,
		Offset:         r.Offset,
		Page:           r.Page,
		ResetCache:     r.Cache != nil && *r.Cache == 0,
		IncludeDeleted: r.IncludeDeleted,
	}
}

// RequestQueryParser decodes and validates request query strings written by a RequestQueryBuilder.
// It is safe for concurrent use.
type RequestQueryParser struct {
	config *queryConfig
}

// NewRequestQueryParser creates a new RequestQueryParser
func NewRequestQueryParser(opts ...QueryOpt) *RequestQueryParser {
	return &RequestQueryParser{config: newQueryConfig(opts)}
}

// Options returns the options observed by the parser
func (p *RequestQueryParser) Options() Options {
	return p.config.current().clone()
}

// ParseRequest parses the query string of an http request
func (p *RequestQueryParser) ParseRequest(r *http.Request) (*ParsedRequest, error) {
	return p.ParseString(r.URL.RawQuery)
}

// ParseString parses a raw query string. A leading '?' is ignored.
func (p *RequestQueryParser) ParseString(raw string) (*ParsedRequest, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return nil, errors.Invalid("query", errors.Syntax, "failed to parse query string: %s", err.Error())
	}
	return p.Parse(values)
}

// Parse decodes and validates the request query params. Every alias of every param is accepted.
func (p *RequestQueryParser) Parse(values url.Values) (*ParsedRequest, error) {
	var (
		o   = p.config.current()
		req = &ParsedRequest{}
		err error
	)
	if raw, ok := scalarParam(values, o.Names(ParamFields)); ok {
		req.Fields = strings.Split(raw, o.DelimStr)
		if err := ValidateFields(req.Fields); err != nil {
			return nil, err
		}
	}
	if raw, ok := scalarParam(values, o.Names(ParamSearch)); ok {
		if req.Search, err = parseSearch(raw); err != nil {
			return nil, err
		}
	}
	if req.Filter, err = parseConditions(listParam(values, o.Names(ParamFilter)), ModeFilter, o); err != nil {
		return nil, err
	}
	if req.Or, err = parseConditions(listParam(values, o.Names(ParamOr)), ModeOr, o); err != nil {
		return nil, err
	}
	for _, raw := range listParam(values, o.Names(ParamJoin)) {
		j, err := parseJoin(raw, o)
		if err != nil {
			return nil, err
		}
		req.Join = append(req.Join, j)
	}
	for _, raw := range listParam(values, o.Names(ParamSort)) {
		s, err := parseSort(raw, o)
		if err != nil {
			return nil, err
		}
		req.Sort = append(req.Sort, s)
	}
	numerics := []struct {
		param Param
		dest  **int
	}{
		{ParamLimit, &req.Limit},
		{ParamOffset, &req.Offset},
		{ParamPage, &req.Page},
		{ParamCache, &req.Cache},
		{ParamIncludeDeleted, &req.IncludeDeleted},
	}
	for _, num := range numerics {
		raw, ok := scalarParam(values, o.Names(num.param))
		if !ok {
			continue
		}
		n, err := parseNumeric(raw, num.param)
		if err != nil {
			return nil, err
		}
		*num.dest = &n
	}
	return req, nil
}

// scalarParam returns the first non-empty value of the first alias present
func scalarParam(values url.Values, names Names) (string, bool) {
	for _, name := range names {
		if v := values.Get(name); v != "" {
			return v, true
		}
	}
	return "", false
}

var indexedKey = regexp.MustCompile(`^(.+)\[(\d*)\]$`)

// listParam collects the values of a repeated param. name, name[] and name[N] keys are accepted,
// indexed keys are returned in index order.
func listParam(values url.Values, names Names) []string {
	var out []string
	for _, name := range names {
		out = append(out, values[name]...)
		out = append(out, values[name+"[]"]...)
		type indexed struct {
			index int
			value []string
		}
		var items []indexed
		for key, v := range values {
			match := indexedKey.FindStringSubmatch(key)
			if match == nil || match[1] != name || match[2] == "" {
				continue
			}
			index, _ := strconv.Atoi(match[2])
			items = append(items, indexed{index: index, value: v})
		}
		sort.Slice(items, func(i, j int) bool {
			return items[i].index < items[j].index
		})
		for _, item := range items {
			out = append(out, item.value...)
		}
	}
	var nonEmpty []string
	for _, v := range out {
		if v != "" {
			nonEmpty = append(nonEmpty, v)
		}
	}
	return nonEmpty
}

func parseSearch(raw string) (SCondition, error) {
	if !gjson.Valid(raw) {
		return nil, errors.Invalid(string(ParamSearch), errors.Syntax, "invalid search param: json expected")
	}
	result := gjson.Parse(raw)
	if !result.IsObject() {
		return nil, errors.Invalid(string(ParamSearch), errors.Type, "invalid search param: json object expected")
	}
	search, _ := result.Value().(map[string]any)
	return search, nil
}

func parseConditions(raw []string, mode CondMode, o Options) ([]Condition, error) {
	var conditions []Condition
	for _, r := range raw {
		c, err := parseCondition(r, mode, o)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, c)
	}
	return conditions, nil
}

// parseCondition decodes field||operator||value. The value is everything after the second delimiter.
func parseCondition(raw string, mode CondMode, o Options) (Condition, error) {
	parts := strings.Split(raw, o.Delim)
	if len(parts) < 2 {
		return Condition{}, errors.Invalid(string(mode), errors.Syntax, "invalid %s condition '%s': expected field%soperator[%svalue]", mode, raw, o.Delim, o.Delim)
	}
	c := Condition{
		Field:    parts[0],
		Operator: Operator(parts[1]),
	}
	if len(parts) > 2 {
		value := strings.Join(parts[2:], o.Delim)
		if c.Operator.MinArity() > 0 {
			var items []any
			for _, item := range strings.Split(value, o.DelimStr) {
				items = append(items, parseValue(item))
			}
			c.Value = items
		} else {
			c.Value = parseValue(value)
		}
	}
	if err := ValidateCondition(c, mode); err != nil {
		return Condition{}, err
	}
	return c, nil
}

// parseValue types a condition value: booleans, numbers that survive a round trip and RFC3339 timestamps
// are converted, everything else stays a string
func parseValue(raw string) any {
	if gjson.Valid(raw) {
		result := gjson.Parse(raw)
		switch result.Type {
		case gjson.True, gjson.False:
			return result.Bool()
		case gjson.Number:
			if i, err := strconv.Atoi(raw); err == nil && strconv.Itoa(i) == raw {
				return i
			}
			if f, err := strconv.ParseFloat(raw, 64); err == nil && strconv.FormatFloat(f, 'f', -1, 64) == raw {
				return f
			}
		}
		return raw
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t
	}
	return raw
}

// parseJoin decodes field[||col1,col2]
func parseJoin(raw string, o Options) (JoinSpec, error) {
	parts := strings.SplitN(raw, o.Delim, 2)
	j := JoinSpec{Field: parts[0]}
	if len(parts) == 2 {
		j.Select = strings.Split(parts[1], o.DelimStr)
	}
	if err := ValidateJoin(j); err != nil {
		return JoinSpec{}, err
	}
	return j, nil
}

// parseSort decodes field,ORDER
func parseSort(raw string, o Options) (SortSpec, error) {
	parts := strings.Split(raw, o.DelimStr)
	if len(parts) != 2 {
		return SortSpec{}, errors.Invalid(string(ParamSort), errors.Syntax, "invalid sort '%s': expected field%sorder", raw, o.DelimStr)
	}
	s := SortSpec{Field: parts[0], Order: SortOrder(parts[1])}
	if err := ValidateSort(s); err != nil {
		return SortSpec{}, err
	}
	return s, nil
}

func parseNumeric(raw string, param Param) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Invalid(string(param), errors.Type, "invalid %s: number expected, got '%s'", param, raw)
	}
	if err := ValidateNumeric(n, param); err != nil {
		return 0, err
	}
	return n, nil
}
