package query

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("dagoba.query")

var (
	runTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dagoba_query_runs_total",
		Help: "Query runs by outcome",
	}, []string{"outcome"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dagoba_query_run_duration_seconds",
		Help:    "Query run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
	})

	runResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dagoba_query_results",
		Help:    "Results returned per query run",
		Buckets: []float64{0, 1, 5, 10, 50, 100, 1000, 10000},
	})

	runActivations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dagoba_query_activations",
		Help:    "Pipe activations per query run",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	stepErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dagoba_query_step_errors_total",
		Help: "Query-time step failures by operator",
	}, []string{"operator"})
)

func startRunSpan(ctx context.Context, q *Query) (context.Context, trace.Span) {
	return tracer.Start(ctx, "dagoba.Query.Run",
		trace.WithAttributes(
			attribute.Int("query.steps", len(q.program)),
			attribute.String("query.program", q.String()),
		),
	)
}

func recordRun(span trace.Span, stats runStats, elapsed time.Duration) {
	outcome := "ok"
	if stats.errors > 0 {
		outcome = "degraded"
	}
	runTotal.WithLabelValues(outcome).Inc()
	runDuration.Observe(elapsed.Seconds())
	runResults.Observe(float64(stats.results))
	runActivations.Observe(float64(stats.activations))

	span.SetAttributes(
		attribute.Int("query.results", stats.results),
		attribute.Int("query.activations", stats.activations),
		attribute.Int("query.errors", stats.errors),
	)
}
