// Package server exposes the analysis pipeline over a small JSON HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/avolkov/sentigo/models"
)

// AnalysisService is the slice of the pipeline the API exposes.
type AnalysisService interface {
	Recommend(ctx context.Context, ticker string) (*models.Recommendation, error)
	HistoricalSentiment(ctx context.Context, ticker string, from, to time.Time) ([]models.DailySentiment, error)
	RunBacktest(ctx context.Context, ticker string, start, end time.Time) (*models.BacktestResult, error)
}

// Server wraps the mux router and the underlying http.Server.
type Server struct {
	router   *mux.Router
	server   *http.Server
	handlers *handlers
	log      zerolog.Logger
}

// Config holds listener settings.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig binds to localhost with conservative timeouts.
func DefaultServerConfig(host string, port int) Config {
	return Config{
		Host:         host,
		Port:         port,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// New builds the server around a Service. The request timeout on analysis
// routes is generous because scoring mentions can take tens of seconds.
func New(cfg Config, svc AnalysisService, logger zerolog.Logger) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		handlers: newHandlers(svc, logger),
		log:      logger.With().Str("component", "server").Logger(),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/sentiment/{ticker}", s.handlers.Sentiment).Methods("GET")
	api.HandleFunc("/recommendation/{ticker}", s.handlers.Recommendation).Methods("GET")
	api.HandleFunc("/backtest", s.handlers.Backtest).Methods("POST")

	s.router.HandleFunc("/health", s.handlers.Health).Methods("GET")
	s.router.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)
}

// Start blocks serving requests until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.server.Shutdown(ctx)
}

// Address returns the bound listen address.
func (s *Server) Address() string {
	return s.server.Addr
}

type requestIDKey struct{}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		requestID, _ := r.Context().Value(requestIDKey{}).(string)
		s.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// responseWrapper captures the status code for request logging.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
