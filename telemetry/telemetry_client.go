package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const ServiceName = "intcode"

// Span and event names.
const (
	SpanAmplifierRun  = "amplifier.run"
	SpanMaxSignal     = "amplifier.max_signal"
	SpanNetworkRun    = "network.run"
	EventNATResend    = "nat.resend"
	EventNATPacket    = "nat.packet"
	EventVMHalted     = "vm.halted"
	AttrProgramHash   = "program.hash"
	AttrPhases        = "amplifier.phases"
	AttrFeedback      = "amplifier.feedback"
	AttrSignal        = "amplifier.signal"
	AttrNetworkSize   = "network.size"
	AttrNATY          = "nat.y"
	AttrEventID       = "event.id"
	AttrIdleThreshold = "network.idle_threshold"
)

// TelemetryClient emits spans for harness runs.
type TelemetryClient struct {
	tracer      trace.Tracer
	provider    *sdktrace.TracerProvider
	nextEventID uint64
	eventIDMu   sync.Mutex
	disabled    bool // if true, spans are never exported
}

// NewNoOpTelemetryClient creates a disabled telemetry client that does nothing
func NewNoOpTelemetryClient() *TelemetryClient {
	return &TelemetryClient{
		tracer:   noop.NewTracerProvider().Tracer(ServiceName),
		disabled: true,
	}
}

// NewTelemetryClient exports spans over OTLP/HTTP to endpoint (host:port).
func NewTelemetryClient(ctx context.Context, endpoint string) (*TelemetryClient, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp exporter for %s: %w", endpoint, err)
	}
	return newClient(sdktrace.WithBatcher(exporter)), nil
}

// NewTelemetryClientWithProcessor is used by tests to capture spans in memory.
func NewTelemetryClientWithProcessor(sp sdktrace.SpanProcessor) *TelemetryClient {
	return newClient(sdktrace.WithSpanProcessor(sp))
}

func newClient(opt sdktrace.TracerProviderOption) *TelemetryClient {
	provider := sdktrace.NewTracerProvider(
		opt,
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", ServiceName))),
	)
	return &TelemetryClient{
		tracer:   provider.Tracer(ServiceName),
		provider: provider,
	}
}

// Disabled reports whether the client drops everything.
func (c *TelemetryClient) Disabled() bool {
	return c == nil || c.disabled
}

// GetEventID returns a new unique event ID for linking related events.
func (c *TelemetryClient) GetEventID() uint64 {
	c.eventIDMu.Lock()
	defer c.eventIDMu.Unlock()
	id := c.nextEventID
	c.nextEventID++
	return id
}

// StartSpan starts a span named name under ctx.
func (c *TelemetryClient) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if c == nil {
		return Default().StartSpan(ctx, name, attrs...)
	}
	return c.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Event adds a numbered event to the span carried by ctx.
func (c *TelemetryClient) Event(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	if c.Disabled() {
		return
	}
	attrs = append(attrs, attribute.Int64(AttrEventID, int64(c.GetEventID())))
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// Close flushes pending spans and shuts the exporter down.
func (c *TelemetryClient) Close(ctx context.Context) error {
	if c.Disabled() || c.provider == nil {
		return nil
	}
	return c.provider.Shutdown(ctx)
}

var (
	defaultMu     sync.RWMutex
	defaultClient = NewNoOpTelemetryClient()
)

// Default returns the process-wide client, a no-op unless Init or SetDefault ran.
func Default() *TelemetryClient {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultClient
}

// SetDefault replaces the process-wide client and registers its provider globally.
func SetDefault(c *TelemetryClient) {
	defaultMu.Lock()
	defaultClient = c
	defaultMu.Unlock()
	if c.provider != nil {
		otel.SetTracerProvider(c.provider)
	}
}

// Init installs an OTLP/HTTP client as the default. An empty endpoint keeps the no-op client.
func Init(ctx context.Context, endpoint string) (*TelemetryClient, error) {
	if endpoint == "" {
		return Default(), nil
	}
	c, err := NewTelemetryClient(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	SetDefault(c)
	return c, nil
}
