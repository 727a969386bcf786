package crudquery

import (
	"net/url"
	"strings"

	"github.com/spf13/cast"
)

// queryObject is an insertion ordered mapping of wire names to string, []string or int values
type queryObject struct {
	keys   []string
	values map[string]any
}

func newQueryObject() *queryObject {
	return &queryObject{values: map[string]any{}}
}

func (q *queryObject) get(key string) (any, bool) {
	v, ok := q.values[key]
	return v, ok
}

func (q *queryObject) set(key string, value any) {
	if _, ok := q.values[key]; !ok {
		q.keys = append(q.keys, key)
	}
	q.values[key] = value
}

func (q *queryObject) appendList(key string, items ...string) {
	existing, _ := q.values[key].([]string)
	next := make([]string, 0, len(existing)+len(items))
	next = append(next, existing...)
	next = append(next, items...)
	q.set(key, next)
}

func (q *queryObject) del(key string) {
	if _, ok := q.values[key]; !ok {
		return
	}
	delete(q.values, key)
	for i, k := range q.keys {
		if k == key {
			q.keys = append(q.keys[:i], q.keys[i+1:]...)
			break
		}
	}
}

func (q *queryObject) urlValues() url.Values {
	values := url.Values{}
	for _, key := range q.keys {
		switch v := q.values[key].(type) {
		case []string:
			values[key] = append([]string{}, v...)
		default:
			values.Set(key, cast.ToString(v))
		}
	}
	return values
}

// stringify serializes the object in insertion order. List values are written as repeated keys.
// Empty lists are omitted.
func (q *queryObject) stringify(encode bool) string {
	var pairs []string
	for _, key := range q.keys {
		switch v := q.values[key].(type) {
		case []string:
			for _, item := range v {
				pairs = append(pairs, pair(key, item, encode))
			}
		default:
			pairs = append(pairs, pair(key, cast.ToString(v), encode))
		}
	}
	return strings.Join(pairs, "&")
}

func pair(key, value string, encode bool) string {
	if encode {
		return escape(key) + "=" + escape(value)
	}
	return key + "=" + value
}

// escape percent encodes everything but the RFC 3986 unreserved characters
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
