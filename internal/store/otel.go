package store

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/xenking/teahouse-backend/internal/store"

var _ Store = (*instrumented)(nil)

type instrumented struct {
	next     Store
	tracer   trace.Tracer
	ops      metric.Int64Counter
	duration metric.Float64Histogram
}

// Instrument wraps s so that every Load and Replace produces a span, an
// operation count and a latency sample.
func Instrument(s Store, tp trace.TracerProvider, mp metric.MeterProvider) (Store, error) {
	meter := mp.Meter(instrumentationName)

	ops, err := meter.Int64Counter("store.operations",
		metric.WithDescription("Collection store operations by kind and outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create operations counter")
	}
	duration, err := meter.Float64Histogram("store.operation.duration",
		metric.WithDescription("Collection store operation latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create duration histogram")
	}

	return &instrumented{
		next:     s,
		tracer:   tp.Tracer(instrumentationName),
		ops:      ops,
		duration: duration,
	}, nil
}

func (s *instrumented) Load(ctx context.Context, name string) ([]byte, error) {
	ctx, finish := s.start(ctx, "load", name)
	data, err := s.next.Load(ctx, name)
	finish(err)
	return data, err
}

func (s *instrumented) Replace(ctx context.Context, name string, data []byte) error {
	ctx, finish := s.start(ctx, "replace", name)
	err := s.next.Replace(ctx, name, data)
	finish(err)
	return err
}

func (s *instrumented) Ping(ctx context.Context) error {
	if p, ok := s.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *instrumented) start(ctx context.Context, op, name string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "store."+op,
		trace.WithAttributes(attribute.String("store.collection", name)),
	)
	return ctx, func(err error) {
		outcome := "ok"
		switch {
		case errors.Is(err, ErrNotExist):
			outcome = "absent"
		case err != nil:
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		attrs := metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("collection", name),
			attribute.String("outcome", outcome),
		)
		s.ops.Add(ctx, 1, attrs)
		s.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		span.End()
	}
}
