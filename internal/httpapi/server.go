package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/roach88/memento/internal/engine"
	"github.com/roach88/memento/internal/metrics"
	"github.com/roach88/memento/internal/model"
	"github.com/roach88/memento/internal/sequence"
)

// Service is the engine surface the front door needs.
type Service interface {
	GetUserInfo(ctx context.Context, workerID string) (engine.UserInfo, error)
	GetVideos(ctx context.Context, args engine.AllocateArgs, tmpl sequence.Template) (model.LevelInputs, error)
	SaveResponses(ctx context.Context, args engine.SaveArgs) (engine.SaveResult, error)
	SubmitLevel(ctx context.Context, levelID, durationMsec int64, feedback string) error
}

// TemplatePicker chooses the template for the next level.
type TemplatePicker interface {
	Pick() (sequence.Template, error)
}

// LogSink receives client log messages.
type LogSink interface {
	Write(message string) error
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IDGenerator generates request ids.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 request ids.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// RequestIDHeader carries the request id on responses.
const RequestIDHeader = "X-Request-ID"

// Server routes HTTP requests to the engine.
type Server struct {
	svc       Service
	templates TemplatePicker
	uiLog     LogSink
	health    Pinger
	metrics   *metrics.Manager
	ids       IDGenerator
	log       *slog.Logger
	origins   []string
}

// Option configures a Server.
type Option func(*Server)

// WithUILog sets where POST /api/log messages go. Without it the route
// answers 404.
func WithUILog(sink LogSink) Option {
	return func(s *Server) { s.uiLog = sink }
}

// WithHealth sets the dependency checked by GET /health.
func WithHealth(p Pinger) Option {
	return func(s *Server) { s.health = p }
}

// WithMetrics records request metrics and serves GET /metrics.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Server) { s.metrics = m }
}

// WithIDGenerator overrides request id generation.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Server) { s.ids = g }
}

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithAllowedOrigins sets the CORS allowed origins. Default: "*".
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// New creates a Server.
func New(svc Service, templates TemplatePicker, opts ...Option) *Server {
	s := &Server{
		svc:       svc,
		templates: templates,
		ids:       UUIDv7Generator{},
		log:       slog.Default(),
		origins:   []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the routed handler with CORS, panic recovery, request ids
// and access logging.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestID, s.accessLog)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", s.handleUser).Methods(http.MethodGet)
	api.HandleFunc("/start", s.handleStart).Methods(http.MethodPost)
	api.HandleFunc("/end", s.handleEnd).Methods(http.MethodPost)
	api.HandleFunc("/submit", s.handleSubmit).Methods(http.MethodPost)
	if s.uiLog != nil {
		api.HandleFunc("/log", s.handleLog).Methods(http.MethodPost)
	}

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.ExposedHeaders([]string{RequestIDHeader}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(s.log.Handler(), slog.LevelError)),
	)
	return recovery(cors(r))
}

type ctxKey struct{}

// requestID tags the request with an id, echoed in RequestIDHeader and
// attached to the request's logger.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := s.ids.Generate()
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// accessLog logs every routed request and records it in metrics under its
// route template.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return handlers.CustomLoggingHandler(io.Discard, next, func(_ io.Writer, p handlers.LogFormatterParams) {
		route := routeTemplate(p.Request)
		took := time.Since(p.TimeStamp)
		if s.metrics != nil {
			s.metrics.ObserveHTTP(route, p.Request.Method, p.StatusCode, took)
		}
		s.logger(p.Request).Debug("http request",
			"method", p.Request.Method,
			"route", route,
			"status", p.StatusCode,
			"size", p.Size,
			"took", took,
		)
	})
}

func (s *Server) logger(r *http.Request) *slog.Logger {
	if id, ok := r.Context().Value(ctxKey{}).(string); ok {
		return s.log.With("request_id", id)
	}
	return s.log
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}
