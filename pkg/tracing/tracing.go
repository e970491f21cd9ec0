// Package tracing wraps an OpenTelemetry TracerProvider so every public
// TextEngine/WhiteboardEngine operation can be wrapped in a span, defaulting
// to a no-op tracer so the ambient observability concern costs nothing when
// a caller doesn't configure an exporter (spec's Non-goals never name
// metrics/tracing, but ambient concerns are carried regardless).
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func resourceServiceName(name string) attribute.KeyValue {
	return attribute.String("service.name", name)
}

// Config configures the tracing subsystem. A zero-value Config disables
// tracing entirely.
type Config struct {
	// Enabled controls whether tracing is active. When false, Provider
	// returns a no-op tracer with zero overhead.
	Enabled bool

	// Exporter selects the export backend: "stdout" or "none". Unlike the
	// source this is grounded on, there is no OTLP exporter here: the demo
	// harness has nowhere to ship spans to, and no SPEC_FULL component
	// needs a gRPC collector endpoint.
	Exporter string

	// ServiceName identifies this process in emitted spans.
	ServiceName string
}

// DefaultConfig returns tracing disabled, matching the teacher's dev default.
func DefaultConfig() Config {
	return Config{Enabled: false, Exporter: "none", ServiceName: "collabcore"}
}

// Provider manages the OpenTelemetry TracerProvider and hands out the one
// Tracer every engine operation spans against.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	enabled  bool
}

// NewProvider builds a Provider from cfg. If tracing is disabled, the
// returned Provider's Tracer is a genuine no-op (zero allocation per span).
func NewProvider(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{tracer: noop.NewTracerProvider().Tracer("noop")}, nil
	}

	var exporter sdktrace.SpanExporter
	var err error
	switch cfg.Exporter {
	case "stdout", "":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
	case "none":
		exporter = nil
	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", cfg.Exporter)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "collabcore"
	}
	res := resource.NewSchemaless(resourceServiceName(serviceName))

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)

	return &Provider{
		provider: provider,
		tracer:   provider.Tracer(serviceName),
		enabled:  true,
	}, nil
}

// Tracer returns the configured tracer. Safe to call even when tracing is
// disabled; spans created from it are no-ops.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil || p.tracer == nil {
		return noop.NewTracerProvider().Tracer("noop")
	}
	return p.tracer
}

// Enabled reports whether the Provider was built with tracing enabled, i.e.
// backed by an SDK TracerProvider. With the "none" exporter it is enabled
// but spans are not exported anywhere.
func (p *Provider) Enabled() bool { return p != nil && p.enabled }

// Shutdown flushes pending spans. A no-op when tracing was never enabled.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p != nil && p.provider != nil {
		return p.provider.Shutdown(ctx)
	}
	return nil
}

// StartOp starts a span named for a TextEngine/WhiteboardEngine public
// operation, returning the derived context and an end function callers
// defer immediately.
func StartOp(ctx context.Context, tracer trace.Tracer, op string) (context.Context, func()) {
	ctx, span := tracer.Start(ctx, op)
	return ctx, func() { span.End() }
}
