package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/standardbeagle/usersoap/internal/types"
)

const (
	tracerName = "github.com/standardbeagle/usersoap"
	meterName  = "github.com/standardbeagle/usersoap"
)

// Metrics holds the OpenTelemetry metric instruments
type Metrics struct {
	OperationCount    metric.Int64Counter
	OperationDuration metric.Float64Histogram
	OperationErrors   metric.Int64Counter
}

type observability struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *Metrics
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger for dispatched operations
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.obs.logger = logger
	}
}

// WithTracer sets the OpenTelemetry tracer
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.obs.tracer = tracer
	}
}

// WithMeter sets the OpenTelemetry meter for metrics
func WithMeter(meter metric.Meter) Option {
	return func(s *Service) {
		s.obs.metrics = initMetrics(meter)
	}
}

// WithDefaultTelemetry uses the global OpenTelemetry tracer and meter
func WithDefaultTelemetry() Option {
	return func(s *Service) {
		s.obs.tracer = otel.Tracer(tracerName)
		s.obs.metrics = initMetrics(otel.Meter(meterName))
	}
}

// initMetrics creates all metric instruments
func initMetrics(meter metric.Meter) *Metrics {
	count, _ := meter.Int64Counter("usersoap.operation.count",
		metric.WithDescription("Total number of dispatched operations"),
		metric.WithUnit("{operation}"),
	)

	duration, _ := meter.Float64Histogram("usersoap.operation.duration",
		metric.WithDescription("Operation duration in milliseconds, store I/O included"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500),
	)

	errs, _ := meter.Int64Counter("usersoap.operation.errors",
		metric.WithDescription("Total number of operations that failed on storage"),
		metric.WithUnit("{error}"),
	)

	return &Metrics{
		OperationCount:    count,
		OperationDuration: duration,
		OperationErrors:   errs,
	}
}

// spanWrapper wraps a trace.Span to handle nil spans gracefully
type spanWrapper struct {
	span trace.Span
}

func (w spanWrapper) End() {
	if w.span != nil {
		w.span.End()
	}
}

func (w spanWrapper) fail(err error) {
	if w.span != nil {
		w.span.RecordError(err)
		w.span.SetStatus(codes.Error, err.Error())
	}
}

func (s *Service) startSpan(ctx context.Context, op types.Operation) (context.Context, spanWrapper) {
	if s.obs.tracer == nil {
		return ctx, spanWrapper{nil}
	}
	ctx, span := s.obs.tracer.Start(ctx, "usersoap."+op.String(),
		trace.WithAttributes(
			attribute.String("usersoap.operation", op.String()),
			attribute.String("usersoap.backend", s.store.Backend()),
		),
	)
	return ctx, spanWrapper{span}
}

func (s *Service) recordMetrics(ctx context.Context, op types.Operation, duration time.Duration, err error) {
	if s.obs.metrics == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("usersoap.operation", op.String()),
		attribute.String("usersoap.backend", s.store.Backend()),
	)

	s.obs.metrics.OperationCount.Add(ctx, 1, attrs)
	s.obs.metrics.OperationDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		s.obs.metrics.OperationErrors.Add(ctx, 1, attrs)
	}
}

func (s *Service) logOperation(ctx context.Context, op types.Operation, duration time.Duration, err error) {
	if s.obs.logger == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("operation", op.String()),
		slog.Duration("duration", duration),
	}

	if err != nil {
		s.obs.logger.LogAttrs(ctx, slog.LevelError, "operation failed", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	s.obs.logger.LogAttrs(ctx, slog.LevelDebug, "operation completed", attrs...)
}
