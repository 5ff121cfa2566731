// Package telemetry provides OpenTelemetry tracing setup and span helpers.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otlptracehttp "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys.
const (
	IntegrationTypeKey = "exporthub.integration.type"
	IntegrationIDKey   = "exporthub.integration.id"
	TargetIDKey        = "exporthub.target.id"
	TargetCountKey     = "exporthub.target.count"
)

// InstrumentationName names the tracer used by application code.
const InstrumentationName = "github.com/ericfisherdev/exporthub"

// Setup installs a global tracer provider exporting over OTLP/HTTP when enabled
// is true. The exporter reads the standard OTEL_EXPORTER_OTLP_* variables.
// When disabled, the global no-op provider stays in place. The returned
// shutdown function flushes pending spans and is always safe to call.
func Setup(ctx context.Context, serviceName string, enabled bool) (func(context.Context) error, error) {
	if !enabled {
		return func(context.Context) error { return nil }, nil
	}

	tp, err := newTracerProvider(ctx, serviceName)
	if err != nil {
		return nil, err
	}

	return tp.Shutdown, nil
}

// Tracer returns the application tracer from the global provider.
//
// nolint:ireturn // OpenTelemetry exposes tracers as interfaces.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// SetError records err on span and marks the span as failed.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("error_occurred", trace.WithAttributes(attrs...))
}

func newTracerProvider(ctx context.Context, serviceName string) (*sdktrace.TracerProvider, error) {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(r),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}))

	return tp, nil
}
