package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies spans emitted by the graph.
const InstrumentationName = "github.com/xraph/poke"

// Span names.
const (
	SpanInject    = "poke.inject"
	SpanRelease   = "poke.release"
	SpanReference = "poke.reference"
)

// Attribute keys.
const (
	AttrTarget    = attribute.Key("poke.target")
	AttrMarker    = attribute.Key("poke.marker")
	AttrBinding   = attribute.Key("poke.binding")
	AttrProviders = attribute.Key("poke.providers")
	AttrErrorCode = attribute.Key("poke.error_code")
)

// NewTracer returns a tracer from tp, or from the global provider when tp is nil.
func NewTracer(tp oteltrace.TracerProvider) oteltrace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return tp.Tracer(InstrumentationName)
}

// Start opens an internal span.
func Start(ctx context.Context, tracer oteltrace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, oteltrace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	return tracer.Start(ctx, name,
		oteltrace.WithSpanKind(oteltrace.SpanKindInternal),
		oteltrace.WithAttributes(attrs...),
	)
}

// End records err (if any) on span and ends it. code is the error code
// reported alongside the error, empty when unknown.
func End(span oteltrace.Span, err error, code string) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if code != "" {
			span.SetAttributes(AttrErrorCode.String(code))
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
