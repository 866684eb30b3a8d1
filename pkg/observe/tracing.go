package observe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reactor/pkg/component"
	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/report"
	"github.com/vango-dev/reactor/pkg/vdom"
)

const defaultTracerName = "reactor"

// TracingConfig configures Tracing.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "reactor").
	TracerName string

	// Provider supplies the tracer. Default: the global provider.
	Provider trace.TracerProvider

	// Computations adds a span event per computation run in a flush.
	Computations bool
}

// TracingOption configures Tracing.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.Provider = tp
	}
}

// WithComputationEvents enables a span event per computation run.
func WithComputationEvents(enabled bool) TracingOption {
	return func(c *TracingConfig) {
		c.Computations = enabled
	}
}

// Tracing emits a span per flush and a child span per instance patch.
// Reports are recorded on the open flush span, or on a span of their own
// outside a flush.
//
// The tracer uses the global OpenTelemetry tracer provider unless one is
// configured:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
type Tracing struct {
	config TracingConfig
	tracer trace.Tracer

	mu       sync.Mutex
	flushCtx context.Context
	flush    trace.Span
	failed   bool
}

// NewTracing creates a tracing observer.
func NewTracing(opts ...TracingOption) *Tracing {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Provider == nil {
		config.Provider = otel.GetTracerProvider()
	}
	return &Tracing{
		config: config,
		tracer: config.Provider.Tracer(config.TracerName),
	}
}

// parent returns the flush span context, or a background context.
func (t *Tracing) parent() context.Context {
	if t.flushCtx != nil {
		return t.flushCtx
	}
	return context.Background()
}

// FlushStarted implements scheduler.Observer.
func (t *Tracing) FlushStarted(pending int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flushCtx, t.flush = t.tracer.Start(context.Background(), "reactor.flush",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.Int("reactor.pending", pending)),
	)
}

// ComputationRan implements scheduler.Observer.
func (t *Tracing) ComputationRan(c *reactive.Computation, elapsed time.Duration) {
	if !t.config.Computations {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.flush == nil {
		return
	}
	t.flush.AddEvent("computation", trace.WithAttributes(
		attribute.Int64("reactor.computation.id", int64(c.ID())),
		attribute.String("reactor.computation.name", c.Name()),
		attribute.Bool("reactor.computation.render", c.IsRender()),
		attribute.Int64("reactor.computation.duration_us", elapsed.Microseconds()),
	))
}

// FlushFinished implements scheduler.Observer.
func (t *Tracing) FlushFinished(ran int, _ time.Duration, aborted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.flush == nil {
		return
	}
	t.flush.SetAttributes(
		attribute.Int("reactor.ran", ran),
		attribute.Bool("reactor.aborted", aborted),
	)
	switch {
	case aborted:
		t.flush.SetStatus(codes.Error, "flush aborted")
	case !t.failed:
		t.flush.SetStatus(codes.Ok, "")
	}
	t.flush.End()
	t.flush, t.flushCtx, t.failed = nil, nil, false
}

// InstanceCreated implements component.Observer.
func (t *Tracing) InstanceCreated(*component.Instance) {}

// HookCalled implements component.Observer.
func (t *Tracing) HookCalled(*component.Instance, component.Hook) {}

// InstanceDestroyed implements component.Observer.
func (t *Tracing) InstanceDestroyed(*component.Instance) {}

// InstancePatched implements component.Observer.
func (t *Tracing) InstancePatched(inst *component.Instance, prev, next *vdom.VNode, elapsed time.Duration) {
	ops := 0
	if prev != nil {
		ops = len(vdom.Diff(prev, next))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	end := time.Now()
	_, span := t.tracer.Start(t.parent(), fmt.Sprintf("reactor.patch %s", inst.Name()),
		trace.WithTimestamp(end.Add(-elapsed)),
		trace.WithAttributes(
			attribute.Int64("reactor.instance.id", int64(inst.ID())),
			attribute.String("reactor.instance.name", inst.Name()),
			attribute.Bool("reactor.first_render", prev == nil),
			attribute.Int("reactor.patch.ops", ops),
		),
	)
	span.End(trace.WithTimestamp(end))
}

// Reported implements component.Observer.
func (t *Tracing) Reported(e *report.Error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	attrs := []attribute.KeyValue{
		attribute.String("reactor.report.kind", e.Kind.String()),
		attribute.String("reactor.report.code", e.Code),
		attribute.String("reactor.report.info", e.Info),
	}
	if e.Instance != 0 {
		attrs = append(attrs, attribute.Int64("reactor.instance.id", int64(e.Instance)))
	}

	span := t.flush
	if span == nil {
		_, span = t.tracer.Start(context.Background(), "reactor.report", trace.WithAttributes(attrs...))
		defer span.End()
	}
	span.RecordError(e, trace.WithAttributes(attrs...))
	if !e.Kind.IsWarning() {
		span.SetStatus(codes.Error, e.Error())
		t.failed = t.flush != nil
	}
}
