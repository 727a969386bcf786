package http

import (
	"context"
)

type ctxKey int

const (
	tagsKey ctxKey = 0
)

// RequestIDTag is the log tag and response header carrying the request id
const RequestIDTag = "request.id"

// WithTags returns a copy of ctx carrying the given log tags on top of the tags already present
func WithTags(ctx context.Context, tags map[string]any) context.Context {
	merged := map[string]any{}
	for k, v := range Tags(ctx) {
		merged[k] = v
	}
	for k, v := range tags {
		merged[k] = v
	}
	return context.WithValue(ctx, tagsKey, merged)
}

// Tags returns the log tags carried by ctx
func Tags(ctx context.Context) map[string]any {
	tags, ok := ctx.Value(tagsKey).(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return tags
}
