package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/autom8ter/crudquery"
	"github.com/autom8ter/crudquery/util"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// Config configures the http server
type Config struct {
	Title        string   `json:"title" yaml:"title" validate:"required"`
	Version      string   `json:"version" yaml:"version" validate:"required"`
	Description  string   `json:"description" yaml:"description" validate:"required"`
	Port         int      `json:"port" yaml:"port" validate:"required,min=1,max=65535"`
	AllowOrigins []string `json:"allowOrigins,omitempty" yaml:"allowOrigins,omitempty"`
	LogLevel     string   `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
}

// Opt configures a Server
type Opt func(s *Server)

// WithLogger overrides the server's logger
func WithLogger(logger Logger) Opt {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithQueryOpts configures the server's query parser and builder
func WithQueryOpts(opts ...crudquery.QueryOpt) Opt {
	return func(s *Server) {
		s.queryOpts = append(s.queryOpts, opts...)
	}
}

// Server exposes the query grammar over http
// GET "/api/query?fields={}&s={}&filter={}&or={}&join={}&sort={}&limit={}&offset={}&page={}&cache={}&include_deleted={}"
// POST "/api/build" (json or yaml query params in request body)
// GET "/api/parse/ws" (websocket, one raw query string per message)
// GET "/api/openapi.yaml", "/api/openapi.json"
type Server struct {
	cfg       Config
	router    *mux.Router
	parser    *crudquery.RequestQueryParser
	queryOpts []crudquery.QueryOpt
	spec      []byte
	logger    Logger
	upgrader  websocket.Upgrader
}

// New creates a new http server
func New(cfg Config, opts ...Opt) (*Server, error) {
	if err := util.ValidateStruct(&cfg); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:      cfg,
		router:   mux.NewRouter(),
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		logger, err := NewLogger(cfg.LogLevel, map[string]any{"service": cfg.Title})
		if err != nil {
			return nil, err
		}
		s.logger = logger
	}
	s.parser = crudquery.NewRequestQueryParser(s.queryOpts...)
	spec, err := crudquery.OpenAPISpec(context.Background(), crudquery.SpecConfig{
		Title:       cfg.Title,
		Version:     cfg.Version,
		Description: cfg.Description,
		Path:        queryPath,
	}, s.parser.Options())
	if err != nil {
		return nil, err
	}
	s.spec = spec
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

const queryPath = "/api/query"

func (s *Server) registerRoutes() error {
	validator, err := OpenAPIValidator(s.spec, s.parser.Options())
	if err != nil {
		return err
	}
	mwares := []mux.MiddlewareFunc{
		RequestID(),
		Logging(s.logger),
		handlers.CORS(
			handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
			handlers.AllowedOrigins(s.cfg.AllowOrigins),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization", RequestIDHeader}),
		),
		handlers.RecoveryHandler(),
	}
	s.router.Use(mwares...)
	s.router.Handle(queryPath, QueryParser(s.parser, s.logger)(validator(s.queryHandler()))).Methods(http.MethodGet)
	s.router.HandleFunc("/api/build", s.buildHandler()).Methods(http.MethodPost)
	s.router.HandleFunc("/api/parse/ws", s.parseStreamHandler())
	s.router.HandleFunc("/api/openapi.yaml", s.specHandler(false)).Methods(http.MethodGet)
	s.router.HandleFunc("/api/openapi.json", s.specHandler(true)).Methods(http.MethodGet)
	return nil
}

// Handler returns the server's http handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Spec returns the openapi document served by the server
func (s *Server) Spec() []byte {
	return s.spec
}

// Logger returns the server's logger
func (s *Server) Logger() Logger {
	return s.logger
}

// Serve serves http until the context is cancelled
func (s *Server) Serve(ctx context.Context) error {
	defer s.logger.Sync(ctx)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%v", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	egp, ctx := errgroup.WithContext(ctx)
	egp.Go(func() error {
		s.logger.Info(ctx, "starting http server", map[string]any{"port": s.cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	egp.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.logger.Info(shutdownCtx, "shutting down http server", map[string]any{})
		return server.Shutdown(shutdownCtx)
	})
	return egp.Wait()
}
