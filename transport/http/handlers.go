package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/autom8ter/crudquery"
	"github.com/autom8ter/crudquery/errors"
	"github.com/autom8ter/crudquery/util"
	"github.com/gorilla/websocket"
	"github.com/nqd/flat"
	"github.com/tidwall/sjson"
)

// QueryResult is the response of the query endpoint and of every parse stream message
type QueryResult struct {
	Request    *crudquery.ParsedRequest `json:"request,omitempty"`
	Expression crudquery.SCondition     `json:"expression,omitempty"`
	Error      *errors.Error            `json:"error,omitempty"`
}

func newQueryResult(req *crudquery.ParsedRequest) *QueryResult {
	return &QueryResult{
		Request:    req,
		Expression: req.Expression(),
	}
}

// FlattenRequest flattens a parsed request into dot-delimited log tags, i.e. {"request.limit": 10, "request.filter.0.field": "age"}
func FlattenRequest(req *crudquery.ParsedRequest) (map[string]any, error) {
	var nested map[string]any
	if err := json.Unmarshal([]byte(util.JSONString(req)), &nested); err != nil {
		return nil, err
	}
	return flat.Flatten(map[string]any{"request": nested}, nil)
}

func (s *Server) queryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		req, _ := crudquery.FromContext(r.Context())
		result := newQueryResult(req)
		if tags, err := FlattenRequest(req); err == nil {
			tags["duration"] = float64(time.Since(start).Microseconds()) / float64(1000)
			s.logger.Debug(r.Context(), "request query parsed", tags)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

func (s *Server) buildHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			Error(w, errors.Wrap(err, errors.Validation, "failed to read request body"))
			return
		}
		bits, err := util.YAMLToJSON(body)
		if err != nil {
			Error(w, err)
			return
		}
		var params crudquery.CreateParams
		if err := json.Unmarshal(bits, &params); err != nil {
			Error(w, errors.Wrap(err, errors.Validation, "failed to decode query params"))
			return
		}
		b := crudquery.Create(&params, s.queryOpts...)
		raw, err := b.Query(false)
		if err != nil {
			s.logger.Warn(r.Context(), "invalid query params", map[string]any{"error": errors.Extract(err).Messages})
			Error(w, err)
			return
		}
		encoded, _ := b.Query(true)
		result, err := sjson.Set("", "query", raw)
		if err == nil {
			result, err = sjson.Set(result, "encoded", encoded)
		}
		if err != nil {
			Error(w, errors.Wrap(err, errors.Internal, "failed to encode response"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(result))
	}
}

func (s *Server) parseStreamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Error(r.Context(), "failed to upgrade parse stream", err, map[string]any{})
			return
		}
		defer conn.Close()
		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				msgType, msg, err := conn.ReadMessage()
				if err != nil {
					if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
						s.logger.Debug(ctx, "parse stream closed", map[string]any{"error": err.Error()})
					}
					return
				}
				if msgType != websocket.TextMessage {
					continue
				}
				var result *QueryResult
				req, err := s.parser.ParseString(string(msg))
				if err != nil {
					result = &QueryResult{Error: errors.Extract(err).RemoveError()}
				} else {
					result = newQueryResult(req)
				}
				if err := conn.WriteJSON(result); err != nil {
					return
				}
			}
		}
	}
}

func (s *Server) specHandler(asJSON bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !asJSON {
			w.Header().Set("Content-Type", "application/yaml")
			w.Write(s.spec)
			return
		}
		bits, err := util.YAMLToJSON(s.spec)
		if err != nil {
			Error(w, errors.Wrap(err, errors.Internal, "failed to convert openapi spec"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(bits)
	}
}
