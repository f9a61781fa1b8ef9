// Package telemetry wraps OpenTelemetry tracing and RED-pattern metrics
// (Rate, Errors, Duration) for gotn's operations. No exporter or metric
// reader is attached, so the recorded values are not exported and are not
// reported by the debug operation.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Provider holds the tracer/meter and the per-operation counters gotn's
// service façade increments.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter

	requestCounter metric.Int64Counter
	errorCounter   metric.Int64Counter
	durationHist   metric.Float64Histogram
}

// New builds a Provider with SDK tracer and meter providers that have no
// exporter or reader attached, and installs them as the global
// OpenTelemetry providers. It takes no OTLP endpoint.
func New(serviceName string) (*Provider, error) {
	tp := sdktrace.NewTracerProvider()
	mp := sdkmetric.NewMeterProvider()
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	tracer := tp.Tracer(serviceName)
	meter := mp.Meter(serviceName)

	reqCounter, err := meter.Int64Counter("gotn.requests", metric.WithDescription("operations invoked"))
	if err != nil {
		return nil, err
	}
	errCounter, err := meter.Int64Counter("gotn.errors", metric.WithDescription("operations that returned an error"))
	if err != nil {
		return nil, err
	}
	durHist, err := meter.Float64Histogram("gotn.duration_ms", metric.WithDescription("operation duration in milliseconds"))
	if err != nil {
		return nil, err
	}

	return &Provider{
		tracerProvider: tp,
		meterProvider:  mp,
		tracer:         tracer,
		meter:          meter,
		requestCounter: reqCounter,
		errorCounter:   errCounter,
		durationHist:   durHist,
	}, nil
}

// Observe wraps fn in a span named op, records RED metrics, and returns
// fn's error unchanged.
func (p *Provider) Observe(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, op)
	defer span.End()

	start := time.Now()
	p.requestCounter.Add(ctx, 1, metric.WithAttributes(attrOp(op)))

	err := fn(ctx)

	p.durationHist.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrOp(op)))
	if err != nil {
		p.errorCounter.Add(ctx, 1, metric.WithAttributes(attrOp(op)))
		span.RecordError(err)
	}
	return err
}

// Shutdown flushes and releases the underlying providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		return err
	}
	return p.meterProvider.Shutdown(ctx)
}
