// Package crudquery encodes structured request queries (fields, search, filters, joins, sorting, pagination)
// into a compact delimiter-based query string and decodes/validates them on the server side.
package crudquery

import (
	"encoding/json"
)

// Param is a logical query parameter
type Param string

const (
	// ParamFields selects resource fields
	ParamFields Param = "fields"
	// ParamSearch is a json encoded search expression
	ParamSearch Param = "search"
	// ParamFilter is a list of and-ed filter conditions
	ParamFilter Param = "filter"
	// ParamOr is a list of or-ed filter conditions
	ParamOr Param = "or"
	// ParamJoin is a list of relations to join
	ParamJoin Param = "join"
	// ParamSort is a list of sort clauses
	ParamSort Param = "sort"
	// ParamLimit is the max number of results
	ParamLimit Param = "limit"
	// ParamOffset is the number of results to skip
	ParamOffset Param = "offset"
	// ParamPage is the page of results
	ParamPage Param = "page"
	// ParamCache set to 0 bypasses the server side result cache
	ParamCache Param = "cache"
	// ParamIncludeDeleted includes soft deleted resources
	ParamIncludeDeleted Param = "includeDeleted"
)

// Params returns all logical params in their canonical order
func Params() []Param {
	return []Param{
		ParamFields,
		ParamSearch,
		ParamFilter,
		ParamOr,
		ParamJoin,
		ParamSort,
		ParamLimit,
		ParamOffset,
		ParamPage,
		ParamCache,
		ParamIncludeDeleted,
	}
}

// IsList returns true if the param is encoded as a repeated query parameter
func (p Param) IsList() bool {
	switch p {
	case ParamFilter, ParamOr, ParamJoin, ParamSort:
		return true
	}
	return false
}

// IsNumeric returns true if the param is encoded as an integer
func (p Param) IsNumeric() bool {
	switch p {
	case ParamLimit, ParamOffset, ParamPage, ParamCache, ParamIncludeDeleted:
		return true
	}
	return false
}

// Names is a list of wire names for a param. The first name is the one the builder writes,
// every name is accepted by the parser.
type Names []string

// UnmarshalJSON accepts either a single name or a list of names
func (n *Names) UnmarshalJSON(bits []byte) error {
	var single string
	if err := json.Unmarshal(bits, &single); err == nil {
		*n = Names{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(bits, &list); err != nil {
		return err
	}
	*n = list
	return nil
}

// Primary returns the name the builder writes
func (n Names) Primary() string {
	if len(n) == 0 {
		return ""
	}
	return n[0]
}

// ParamNames maps logical params to their wire names
type ParamNames map[Param]Names

// Options configures the query grammar
type Options struct {
	// Delim separates the field, operator and value of a condition
	Delim string `json:"delim,omitempty"`
	// DelimStr separates list items within a condition value, a select list or a sort clause
	DelimStr string `json:"delimStr,omitempty"`
	// ParamNamesMap translates each logical param to its wire name(s)
	ParamNamesMap ParamNames `json:"paramNamesMap,omitempty"`
}

// DefaultOptions returns a copy of the built-in options
func DefaultOptions() Options {
	return Options{
		Delim:    "||",
		DelimStr: ",",
		ParamNamesMap: ParamNames{
			ParamFields:         {"fields", "select"},
			ParamSearch:         {"s"},
			ParamFilter:         {"filter"},
			ParamOr:             {"or"},
			ParamJoin:           {"join"},
			ParamSort:           {"sort"},
			ParamLimit:          {"limit", "per_page"},
			ParamOffset:         {"offset"},
			ParamPage:           {"page"},
			ParamCache:          {"cache"},
			ParamIncludeDeleted: {"include_deleted"},
		},
	}
}

// Merge returns a copy of o with the non-empty fields of other applied on top.
// The param names map is merged per param.
func (o Options) Merge(other Options) Options {
	merged := o.clone()
	if other.Delim != "" {
		merged.Delim = other.Delim
	}
	if other.DelimStr != "" {
		merged.DelimStr = other.DelimStr
	}
	for param, names := range other.ParamNamesMap {
		if len(names) == 0 {
			continue
		}
		merged.ParamNamesMap[param] = append(Names{}, names...)
	}
	return merged
}

// Names returns the wire names of the given param
func (o Options) Names(p Param) Names {
	return o.ParamNamesMap[p]
}

func (o Options) clone() Options {
	c := Options{
		Delim:         o.Delim,
		DelimStr:      o.DelimStr,
		ParamNamesMap: ParamNames{},
	}
	for param, names := range o.ParamNamesMap {
		c.ParamNamesMap[param] = append(Names{}, names...)
	}
	return c
}

// defaultOptions are the process-lifetime options observed by builders and parsers constructed without WithOptions.
// It is written by SetOptions, which is expected to run once at startup.
var defaultOptions = DefaultOptions()

// SetOptions merges the given options into the process-wide defaults
func SetOptions(options Options) {
	defaultOptions = defaultOptions.Merge(options)
}

// GetOptions returns a copy of the process-wide defaults
func GetOptions() Options {
	return defaultOptions.clone()
}

// ResetOptions restores the built-in process-wide defaults
func ResetOptions() {
	defaultOptions = DefaultOptions()
}

type queryConfig struct {
	options *Options
}

// QueryOpt configures a RequestQueryBuilder or RequestQueryParser
type QueryOpt func(c *queryConfig)

// WithOptions gives the builder or parser its own options, merged over the process-wide defaults
func WithOptions(options Options) QueryOpt {
	return func(c *queryConfig) {
		merged := GetOptions().Merge(options)
		c.options = &merged
	}
}

func newQueryConfig(opts []QueryOpt) *queryConfig {
	c := &queryConfig{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// current returns the explicit options if present, otherwise the live process-wide defaults
func (c *queryConfig) current() Options {
	if c.options != nil {
		return *c.options
	}
	return defaultOptions
}
