// Package server exposes the stored timetables over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tsawler/timetable/fetch"
)

// Options configures the HTTP API
type Options struct {
	Repository Repository
	Standard   *fetch.StandardStore
	BundlePath string

	AllowedOrigins []string

	// Metrics are registered on Registerer and served from Gatherer. Both
	// default to the Prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// New builds the router serving the API
func New(opts Options) (http.Handler, error) {
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	requests := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: "timetable_http_request_duration_seconds",
		Help: "Time taken to serve API requests",
	}, []string{"route"})
	if err := opts.Registerer.Register(requests); err != nil {
		return nil, err
	}

	h := &handler{
		repo:       opts.Repository,
		standard:   opts.Standard,
		bundlePath: opts.BundlePath,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(observe(requests))

	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))

	r.Get("/api/documents", h.documents)
	r.Get("/api/documents/{document}/tables", h.tables)
	r.Get("/api/documents/{document}/tables/{key}", h.table)
	r.Get("/api/standard", h.currentStandard)
	r.Get("/api/bundle", h.bundle)

	return r, nil
}

// observe records request durations labelled by route pattern
func observe(summary *prometheus.SummaryVec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			defer func() {
				route := "unmatched"
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				summary.With(prometheus.Labels{"route": route}).Observe(time.Since(start).Seconds())
			}()

			next.ServeHTTP(w, r)
		})
	}
}
