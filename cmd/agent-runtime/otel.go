package main

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// tracingShutdown flushes and shuts down the trace exporter.
type tracingShutdown func(context.Context) error

// setupTracing configures OTLP trace export if enabled. AgentCore injects
// the collector endpoint when runtime observability is turned on.
func setupTracing(ctx context.Context, cfg *runtimeConfig, log *slog.Logger) tracingShutdown {
	if !cfg.TracingEnabled || cfg.OTLPEndpoint == "" {
		log.Info("tracing disabled")
		return func(context.Context) error { return nil }
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
	if err != nil {
		log.Error("otlp exporter init failed, tracing disabled", "error", err)
		return func(context.Context) error { return nil }
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("agent-runtime"),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		res = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	log.Info("tracing enabled", "endpoint", cfg.OTLPEndpoint)
	return tp.Shutdown
}
