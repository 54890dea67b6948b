package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pulseui/pulse/pkg/pulse"
)

// Default tracer name for pulse applications.
const defaultTracerName = "pulse"

// TraceConfig configures traced batch execution.
type TraceConfig struct {
	// TracerName is the name of the tracer (default: "pulse").
	TracerName string

	// Attributes are added to every transaction span.
	Attributes []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// TraceOption configures traced batch execution.
type TraceOption func(*TraceConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TraceOption {
	return func(c *TraceConfig) {
		c.TracerName = name
	}
}

// WithAttributes adds attributes to every transaction span.
func WithAttributes(attrs ...attribute.KeyValue) TraceOption {
	return func(c *TraceConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// Tracer wraps reactive transactions in OpenTelemetry spans.
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in your main() before creating a Tracer:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	)
//	otel.SetTracerProvider(tp)
type Tracer struct {
	config TraceConfig
}

// NewTracer builds a Tracer resolved against the global provider.
func NewTracer(opts ...TraceOption) *Tracer {
	config := TraceConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)
	return &Tracer{config: config}
}

// Tx runs fn inside a batch wrapped in a span named "pulse.tx".
func (t *Tracer) Tx(ctx context.Context, fn func()) {
	t.TxNamed(ctx, "pulse.tx", fn)
}

// TxNamed runs fn inside a batch wrapped in a span with the given name.
// All writes performed by fn coalesce into a single flush; the span covers
// the writes and the flush, so effect work triggered by the transaction is
// attributed to it.
//
// Example:
//
//	tracer := telemetry.NewTracer()
//	tracer.TxNamed(ctx, "checkout.apply", func() {
//	    cart.Set(nil)
//	    total.Set(0)
//	})
func (t *Tracer) TxNamed(ctx context.Context, name string, fn func()) {
	_, span := t.config.tracer.Start(
		ctx,
		name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(t.config.Attributes...),
		trace.WithTimestamp(time.Now()),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			span.SetStatus(codes.Error, "transaction panicked")
			panic(r)
		}
		span.SetStatus(codes.Ok, "")
	}()

	pulse.Batch(fn)
}
