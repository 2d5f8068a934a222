// Package server is the inbound HTTP side: the webhook Shinobi calls on
// motion events, plus health, status and metrics endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"shinobi-relay/internal/relay"
	"shinobi-relay/pkg/models"
)

// Relayer is satisfied by *relay.Pipeline.
type Relayer interface {
	Run(ctx context.Context, req relay.Request) (relay.Outcome, error)
}

// ArmedState is satisfied by *armed.State.
type ArmedState interface {
	Armed() bool
}

type Options struct {
	// TriggerPath is where Shinobi's webhook points, e.g. "/trigger".
	TriggerPath string
	// RateLimit caps trigger requests per minute per client IP; 0 disables.
	RateLimit int
	// Destination receives webhook-triggered batches.
	Destination models.Destination
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
}

type Server struct {
	relay Relayer
	state ArmedState
	opts  Options
	log   zerolog.Logger
}

func New(relayer Relayer, state ArmedState, opts Options, log zerolog.Logger) *Server {
	if opts.TriggerPath == "" {
		opts.TriggerPath = "/trigger"
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		relay: relayer,
		state: state,
		opts:  opts,
		log:   log.With().Str("component", "http").Logger(),
	}
}

// Routes constructs the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/status", s.handleStatus)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		if s.opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.opts.RateLimit, time.Minute))
		}
		r.Get(s.opts.TriggerPath, s.handleTrigger)
		r.Post(s.opts.TriggerPath, s.handleTrigger)
	})

	return r
}

// NewHTTPServer wraps handler with the settings used in production.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
