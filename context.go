package crudquery

import (
	"context"
)

type ctxKey int

const (
	parsedRequestKey ctxKey = 0
)

// ToContext adds the parsed request to the input go context
func ToContext(ctx context.Context, req *ParsedRequest) context.Context {
	return context.WithValue(ctx, parsedRequestKey, req)
}

// FromContext gets the parsed request from the context if it exists
func FromContext(ctx context.Context) (*ParsedRequest, bool) {
	r, ok := ctx.Value(parsedRequestKey).(*ParsedRequest)
	if ok && r != nil {
		return r, true
	}
	return &ParsedRequest{}, false
}
