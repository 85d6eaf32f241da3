// Package telemetry wires an OpenTelemetry tracer provider: a no-op
// provider by default, or a stdout exporter when enabled, so decode and
// sink spans cost nothing unless an operator asks for them.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	SpanDecodeFrame = "ingest.decode.frame"
	SpanSinkDeliver = "ingest.sink.deliver"
	tracerName      = "avlgateway"
)

// Provider owns the process tracer and its shutdown hook.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

// New configures tracing per the OTEL_EXPORTER setting: "stdout" installs
// a stdouttrace exporter, anything else (including "none" or empty)
// leaves the global no-op tracer in place.
func New(exporter string) (*Provider, error) {
	if exporter != "stdout" {
		return &Provider{tracer: otel.Tracer(tracerName)}, nil
	}

	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
	otel.SetTracerProvider(tp)
	return &Provider{tp: tp, tracer: tp.Tracer(tracerName)}, nil
}

func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, name)
}

// Shutdown flushes and stops the exporter, if one was installed.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}
