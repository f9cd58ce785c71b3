package service

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"library-lending/internal/domain"
)

const tracerName = "library-lending/service"

var (
	lendingOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "library_lending_operations_total", Help: "Lending operations by outcome"},
		[]string{"op", "result"},
	)
	deletedRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "library_cascade_deleted_rows_total", Help: "Rows removed by cascading deletions"},
		[]string{"table"},
	)
	retriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "library_tx_retries_total", Help: "Transaction retries after transient storage errors"},
	)
)

func init() { prometheus.MustRegister(lendingOps, deletedRows, retriesTotal) }

// outcome labels an error for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	}
	return "error"
}

func (b base) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return b.tracer.Start(ctx, op, trace.WithAttributes(attrs...))
}

// finish records the outcome of op on both the span and the counter.
func finish(span trace.Span, op string, err error) {
	res := outcome(err)
	lendingOps.WithLabelValues(op, res).Inc()
	span.SetAttributes(attribute.String("result", res))
	if res == "error" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
