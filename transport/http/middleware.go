package http

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/autom8ter/crudquery"
	"github.com/autom8ter/crudquery/errors"
	"github.com/felixge/httpsnoop"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gorilla/mux"
	"github.com/samber/lo"
	"github.com/segmentio/ksuid"
)

// RequestIDHeader is the header a request id is read from and written to
const RequestIDHeader = "X-Request-Id"

// RequestID tags every request with a request id. The inbound X-Request-Id header is reused when present,
// otherwise a new ksuid is generated.
func RequestID() mux.MiddlewareFunc {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = ksuid.New().String()
			}
			w.Header().Set(RequestIDHeader, id)
			ctx := WithTags(r.Context(), map[string]any{RequestIDTag: id})
			handler.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// QueryParser parses the query string of every request. Invalid queries are answered with a 400 and a json error body,
// otherwise the parsed request is added to the request context (see crudquery.FromContext).
func QueryParser(parser *crudquery.RequestQueryParser, logger Logger) mux.MiddlewareFunc {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req, err := parser.ParseRequest(r)
			if err != nil {
				e := errors.Extract(err)
				logger.Warn(r.Context(), "invalid request query", map[string]any{
					"query":  r.URL.RawQuery,
					"field":  e.Field,
					"reason": e.Reason,
				})
				Error(w, err)
				return
			}
			handler.ServeHTTP(w, r.WithContext(crudquery.ToContext(r.Context(), req)))
		})
	}
}

// OpenAPIValidator validates inbound requests against the given openapi document
// adds openapi.route to the request log tags. Invalid query params are reported under their logical param name
// in the given options.
func OpenAPIValidator(spec []byte, o crudquery.Options) (mux.MiddlewareFunc, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, errors.Wrap(err, errors.Internal, "invalid openapi spec")
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, errors.Wrap(err, errors.Internal, "invalid openapi spec")
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.Internal, "failed to configure openapi router")
	}
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				Error(w, errors.Wrap(err, errors.NotFound, "route not found"))
				return
			}
			requestValidationInput := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{AuthenticationFunc: func(ctx context.Context, input *openapi3filter.AuthenticationInput) error {
					return nil
				}},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), requestValidationInput); err != nil {
				Error(w, requestError(err, o))
				return
			}
			ctx := WithTags(r.Context(), map[string]any{"openapi.route": route.Path})
			handler.ServeHTTP(w, r.WithContext(ctx))
		})
	}, nil
}

// requestError converts an openapi request validation error into a field/reason validation error
func requestError(err error, o crudquery.Options) error {
	var reqErr *openapi3filter.RequestError
	if !stderrors.As(err, &reqErr) || reqErr.Parameter == nil {
		return errors.Wrap(err, errors.Validation, "request failed openapi validation")
	}
	field := reqErr.Parameter.Name
	for _, p := range crudquery.Params() {
		if lo.Contains(o.Names(p), field) {
			field = string(p)
			break
		}
	}
	reason := errors.Type
	var schemaErr *openapi3.SchemaError
	if stderrors.As(reqErr.Err, &schemaErr) && lo.Contains([]string{"minimum", "maximum"}, schemaErr.SchemaField) {
		reason = errors.Range
	}
	return errors.Invalid(field, reason, "invalid %s: %s", field, reqErr.Error())
}

// Logging logs every request with its status and duration
func Logging(logger Logger) mux.MiddlewareFunc {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(handler, w, r)
			tags := map[string]any{
				"request.method": r.Method,
				"request.path":   r.URL.Path,
				"response.code":  m.Code,
				"response.bytes": m.Written,
				"duration":       float64(m.Duration.Microseconds()) / float64(1000),
			}
			if m.Code >= http.StatusInternalServerError {
				logger.Warn(r.Context(), "request failed", tags)
				return
			}
			logger.Debug(r.Context(), "request served", tags)
		})
	}
}
