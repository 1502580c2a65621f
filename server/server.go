package server

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/arloliu/rossdash/internal/options"
	"github.com/arloliu/rossdash/table"
)

const apiPrefix = "/api/v1"

// Config holds server settings.
type Config struct {
	logger   logrus.FieldLogger
	registry *prometheus.Registry
}

// Option configures a Server.
type Option = options.Option[*Config]

// WithLogger sets the request logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return options.NoError(func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithRegistry registers the server metrics with reg and serves reg on
// /metrics. By default each server gets its own registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return options.NoError(func(c *Config) {
		if reg != nil {
			c.registry = reg
		}
	})
}

// Server exposes a Telemetry as a JSON API.
type Server struct {
	tel         *table.Telemetry
	log         logrus.FieldLogger
	registry    *prometheus.Registry
	metrics     *Metrics
	router      *mux.Router
	generation  atomic.Uint64
	unsubscribe func()
}

// New creates a server over tel. Close releases its window subscription.
func New(tel *table.Telemetry, opts ...Option) (*Server, error) {
	cfg := &Config{logger: logrus.StandardLogger()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.registry == nil {
		cfg.registry = prometheus.NewRegistry()
	}

	s := &Server{
		tel:      tel,
		log:      cfg.logger,
		registry: cfg.registry,
		metrics:  NewMetrics(cfg.registry),
	}
	for _, tbl := range tel.Tables() {
		s.metrics.tableRows.WithLabelValues(tbl.Kind().String()).Set(float64(tbl.Len()))
	}

	s.unsubscribe = tel.Subscribe(func(w table.Window) {
		gen := s.generation.Add(1)
		s.metrics.windowChanges.Inc()
		s.log.WithFields(logrus.Fields{"window": w.String(), "generation": gen}).Debug("time window changed")
	})

	s.router = s.routes()

	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)

	api := r.PathPrefix(apiPrefix).Subrouter()
	api.HandleFunc("/tables", s.handleTables).Methods(http.MethodGet)
	api.HandleFunc("/tables/{kind}/rows", s.handleRows).Methods(http.MethodGet)
	api.HandleFunc("/tables/{kind}/span", s.handleSpan).Methods(http.MethodGet)
	api.HandleFunc("/window", s.handleGetWindow).Methods(http.MethodGet)
	api.HandleFunc("/window", s.handleSetWindow).Methods(http.MethodPut)
	api.HandleFunc("/window", s.handleResetWindow).Methods(http.MethodDelete)

	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Generation returns the number of window changes seen since New.
func (s *Server) Generation() uint64 {
	return s.generation.Load()
}

// Close stops tracking window changes.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		s.metrics.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.metrics.latency.WithLabelValues(route).Observe(elapsed.Seconds())
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": elapsed,
		}).Debug("handled request")
	})
}
