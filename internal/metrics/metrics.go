package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "txflow_messages_consumed_total",
		Help: "Total number of non-empty messages pulled from a topic.",
	}, []string{"topic"})

	MessagesCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "txflow_messages_committed_total",
		Help: "Total number of offsets committed, labelled by topic.",
	}, []string{"topic"})

	MessagesDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "txflow_messages_discarded_total",
		Help: "Total number of messages acknowledged without being handled, labelled by reason.",
	}, []string{"topic", "reason"})

	HandlerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "txflow_handler_failures_total",
		Help: "Total number of messages whose handler failed and whose offset was left uncommitted.",
	}, []string{"topic"})

	PollErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "txflow_poll_errors_total",
		Help: "Total number of broker-level errors returned while polling.",
	}, []string{"topic"})

	HandlerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "txflow_handler_duration_seconds",
		Help:    "Per-message handler latency in seconds.",
		Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"topic"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "txflow_events_published_total",
		Help: "Total number of publish attempts, labelled by topic and status.",
	}, []string{"topic", "status"})

	FraudVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "txflow_fraud_verdicts_total",
		Help: "Total number of antifraud evaluations, labelled by verdict.",
	}, []string{"verdict"})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "txflow_status_transitions_total",
		Help: "Total number of status applications, labelled by resulting status and outcome.",
	}, []string{"status", "outcome"})

	ImportedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "txflow_imported_rows_total",
		Help: "Total number of rows read from transfer files, labelled by outcome.",
	}, []string{"outcome"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve runs a metrics-only listener on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutCtx)
	}()

	logger.Info("metrics listener starting", "addr", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics listener failed", "error", err)
	}
}
