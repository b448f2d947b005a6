package observability

import (
	"context"
	"time"

	"updaterelay/internal/catalog"
	"updaterelay/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedSource wraps a catalog.Source with OpenTelemetry tracing and
// metrics. Because it sits between the cache and the provider client, its
// call count is exactly the number of upstream fetches; comparing it with
// the HTTP request rate gives the cache hit ratio.
type InstrumentedSource struct {
	inner    catalog.Source
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// NewInstrumentedSource creates a source wrapper that records a trace span,
// a latency histogram sample and an error counter for every upstream fetch.
func NewInstrumentedSource(inner catalog.Source) (*InstrumentedSource, error) {
	tracer := otel.Tracer("updaterelay/catalog")
	meter := otel.Meter("updaterelay/catalog")

	duration, err := meter.Float64Histogram(
		"catalog.fetch.duration",
		metric.WithDescription("Duration of upstream release fetches in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"catalog.fetch.errors",
		metric.WithDescription("Number of failed upstream release fetches"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedSource{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
	}, nil
}

// ListReleases fetches through the inner source, recording span and metrics.
func (s *InstrumentedSource) ListReleases(ctx context.Context, owner, repo string) ([]*models.Release, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.ListReleases",
		trace.WithAttributes(
			attribute.String("catalog.owner", owner),
			attribute.String("catalog.repo", repo),
		),
	)
	start := time.Now()

	releases, err := s.inner.ListReleases(ctx, owner, repo)

	attrs := metric.WithAttributes(
		attribute.String("owner", owner),
		attribute.String("repo", repo),
	)
	s.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil {
		s.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("catalog.releases", len(releases)))
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	return releases, err
}
