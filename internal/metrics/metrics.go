// Package metrics exposes Prometheus counters for the usage log watcher.
package metrics

import (
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// UsageLines counts usage log lines by outcome ("ingested" or "malformed").
	UsageLines = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewind_usage_lines_total",
			Help: "Usage log lines processed by the watcher",
		},
		[]string{"result"},
	)

	// IngestPasses counts ingest passes by trigger.
	IngestPasses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewind_ingest_passes_total",
			Help: "Usage log ingest passes",
		},
		[]string{"trigger"},
	)

	IngestErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rewind_ingest_errors_total",
			Help: "Usage log ingest passes that failed",
		},
	)

	IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rewind_ingest_duration_seconds",
			Help:    "Duration of a usage log ingest pass",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	LastIngest = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rewind_last_ingest_timestamp_seconds",
			Help: "Unix time of the last successful ingest pass",
		},
	)
)

func init() {
	prometheus.MustRegister(
		UsageLines,
		IngestPasses,
		IngestErrors,
		IngestDuration,
		LastIngest,
	)
}

// ObservePass records the outcome of one ingest pass.
func ObservePass(trigger string, ingested, malformed int, elapsed time.Duration, err error) {
	IngestPasses.WithLabelValues(trigger).Inc()
	IngestDuration.Observe(elapsed.Seconds())
	if err != nil {
		IngestErrors.Inc()
		return
	}
	UsageLines.WithLabelValues("ingested").Add(float64(ingested))
	UsageLines.WithLabelValues("malformed").Add(float64(malformed))
	LastIngest.SetToCurrentTime()
}

// Server is the metrics HTTP server.
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener
}

// NewServer creates a metrics server for addr.
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Start binds the listen address and serves in the background. Bind errors
// are returned synchronously.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.listener = ln

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("starting metrics server")
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("metrics server error")
		}
	}()
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

// Stop closes the server.
func (s *Server) Stop() error {
	s.logger.Info().Msg("stopping metrics server")
	return s.server.Close()
}
