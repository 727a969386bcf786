package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/autom8ter/crudquery"
	"github.com/autom8ter/crudquery/errors"
	transport "github.com/autom8ter/crudquery/transport/http"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, opts ...transport.Opt) *transport.Server {
	logger, err := transport.NewLogger("error", map[string]any{"test": t.Name()})
	require.NoError(t, err)
	s, err := transport.New(transport.Config{
		Title:       "crudquery",
		Version:     "v0.0.0",
		Description: "request query test server",
		Port:        8080,
	}, append([]transport.Opt{transport.WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	return s
}

func serve(s *transport.Server, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)
	return w
}

func TestServer(t *testing.T) {
	s := newServer(t)
	t.Run("invalid config", func(t *testing.T) {
		_, err := transport.New(transport.Config{Title: "crudquery", Version: "v0.0.0", Description: "test"})
		require.Error(t, err)
		assert.Equal(t, "port", errors.Extract(err).Field)
	})
	t.Run("query", func(t *testing.T) {
		q, err := crudquery.NewRequestQueryBuilder().
			Select("name", "email").
			SetFilter([]any{"age", "gte", 18}).
			SetLimit(10).
			Query(true)
		require.NoError(t, err)
		w := serve(s, httptest.NewRequest(http.MethodGet, "/api/query?"+q, nil))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.NotEmpty(t, w.Header().Get(transport.RequestIDHeader))
		var result transport.QueryResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		require.NotNil(t, result.Request)
		assert.Equal(t, []string{"name", "email"}, result.Request.Fields)
		assert.Equal(t, 10, *result.Request.Limit)
		assert.Equal(t, crudquery.SCondition{
			"$and": []any{map[string]any{"age": map[string]any{"$gte": float64(18)}}},
		}, result.Expression)
	})
	t.Run("request id", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/query", nil)
		r.Header.Set(transport.RequestIDHeader, "abc")
		w := serve(s, r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "abc", w.Header().Get(transport.RequestIDHeader))
	})
	t.Run("invalid query", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodGet, "/api/query?filter=age%7C%7C%3D%3D%7C%7C18", nil))
		require.Equal(t, http.StatusBadRequest, w.Code)
		var e errors.Error
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
		assert.Equal(t, errors.Validation, e.Code)
		assert.Equal(t, "filter.operator", e.Field)
		assert.Equal(t, errors.NotAllowed, e.Reason)
	})
	t.Run("invalid limit", func(t *testing.T) {
		for _, q := range []string{"limit=0", "per_page=0"} {
			t.Run(q, func(t *testing.T) {
				w := serve(s, httptest.NewRequest(http.MethodGet, "/api/query?"+q, nil))
				require.Equal(t, http.StatusBadRequest, w.Code)
				var e errors.Error
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
				assert.Equal(t, "limit", e.Field)
				assert.Equal(t, errors.Range, e.Reason)
			})
		}
	})
	t.Run("build", func(t *testing.T) {
		body := `{"fields":["name"],"filter":[{"field":"age","operator":"gte","value":18}],"sort":[{"field":"name","order":"ASC"}],"limit":5}`
		w := serve(s, httptest.NewRequest(http.MethodPost, "/api/build", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{
			"query": "fields=name&filter=age||gte||18&limit=5&sort=name,ASC",
			"encoded": "fields=name&filter=age%7C%7Cgte%7C%7C18&limit=5&sort=name%2CASC"
		}`, w.Body.String())
	})
	t.Run("build yaml", func(t *testing.T) {
		body := "fields: [name]\njoin:\n  - field: company\n    select: [id]\n"
		w := serve(s, httptest.NewRequest(http.MethodPost, "/api/build", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"query": "fields=name&join=company||id", "encoded": "fields=name&join=company%7C%7Cid"}`, w.Body.String())
	})
	t.Run("build invalid", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodPost, "/api/build", bytes.NewBufferString(`{"limit":0}`)))
		require.Equal(t, http.StatusBadRequest, w.Code)
		var e errors.Error
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
		assert.Equal(t, "limit", e.Field)
		assert.Equal(t, errors.Range, e.Reason)
	})
	t.Run("openapi", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodGet, "/api/openapi.yaml", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, s.Spec(), w.Body.Bytes())
		doc, err := openapi3.NewLoader().LoadFromData(w.Body.Bytes())
		require.NoError(t, err)
		assert.NotNil(t, doc.Paths.Find("/api/query"))

		w = serve(s, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, json.Valid(w.Body.Bytes()))
	})
	t.Run("not found", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodGet, "/api/nothing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServerOptions(t *testing.T) {
	s := newServer(t, transport.WithQueryOpts(crudquery.WithOptions(crudquery.Options{
		ParamNamesMap: crudquery.ParamNames{crudquery.ParamLimit: {"take"}},
	})))
	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/query?take=3", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result transport.QueryResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 3, *result.Request.Limit)

	w = serve(s, httptest.NewRequest(http.MethodPost, "/api/build", strings.NewReader(`{"limit":3}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"query": "take=3", "encoded": "take=3"}`, w.Body.String())
}

func TestParseStream(t *testing.T) {
	s := newServer(t)
	server := httptest.NewServer(s.Handler())
	defer server.Close()
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws%s/api/parse/ws", strings.TrimPrefix(server.URL, "http")), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("fields=a,b&or=c||isnull")))
	var result transport.QueryResult
	require.NoError(t, conn.ReadJSON(&result))
	assert.Nil(t, result.Error)
	assert.Equal(t, []string{"a", "b"}, result.Request.Fields)
	assert.Equal(t, crudquery.SCondition{
		"$or": []any{map[string]any{"c": map[string]any{"$isnull": true}}},
	}, result.Expression)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("sort=a")))
	result = transport.QueryResult{}
	require.NoError(t, conn.ReadJSON(&result))
	require.NotNil(t, result.Error)
	assert.Equal(t, errors.Syntax, result.Error.Reason)
	assert.Nil(t, result.Request)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	transport.Error(w, fmt.Errorf("boom"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var e errors.Error
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.Equal(t, errors.Internal, e.Code)

	w = httptest.NewRecorder()
	transport.Error(w, errors.New(errors.NotFound, "missing"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFlattenRequest(t *testing.T) {
	tags, err := transport.FlattenRequest(&crudquery.ParsedRequest{
		Fields: []string{"a"},
		Filter: []crudquery.Condition{{Field: "age", Operator: crudquery.OpGte, Value: 18}},
	})
	require.NoError(t, err)
	assert.Equal(t, "a", tags["request.fields.0"])
	assert.Equal(t, "age", tags["request.filter.0.field"])
	assert.Equal(t, float64(18), tags["request.filter.0.value"])
}

func TestOpenAPIValidator(t *testing.T) {
	opts := crudquery.DefaultOptions().Merge(crudquery.Options{
		ParamNamesMap: crudquery.ParamNames{
			crudquery.ParamLimit: {"per_page"},
		},
	})
	spec, err := crudquery.OpenAPISpec(context.Background(), crudquery.SpecConfig{
		Title:       "crudquery",
		Version:     "v0.0.0",
		Description: "request query test server",
	}, opts)
	require.NoError(t, err)
	validator, err := transport.OpenAPIValidator(spec, opts)
	require.NoError(t, err)
	handler := validator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	type testCase struct {
		query  string
		code   int
		field  string
		reason errors.Reason
	}
	for _, tc := range []testCase{
		{query: "per_page=5", code: http.StatusOK},
		{query: "per_page=0", code: http.StatusBadRequest, field: "limit", reason: errors.Range},
		{query: "per_page=abc", code: http.StatusBadRequest, field: "limit", reason: errors.Type},
		{query: "offset=-1", code: http.StatusBadRequest, field: "offset", reason: errors.Range},
		{query: "include_deleted=-1", code: http.StatusBadRequest, field: "includeDeleted", reason: errors.Range},
	} {
		t.Run(tc.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/query?"+tc.query, nil))
			require.Equal(t, tc.code, w.Code, w.Body.String())
			if tc.code == http.StatusOK {
				return
			}
			var e errors.Error
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
			assert.Equal(t, errors.Validation, e.Code)
			assert.Equal(t, tc.field, e.Field)
			assert.Equal(t, tc.reason, e.Reason)
		})
	}
}
