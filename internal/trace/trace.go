// Package trace sets up OpenTelemetry tracing for fngate. Spans go to an OTLP
// HTTP collector when an endpoint is configured and nowhere otherwise.
package trace

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "fngate"

type Config struct {
	Endpoint string `toml:"endpoint"` // host:port of the collector
	URLPath  string `toml:"url_path"`
	APIKey   string `toml:"api_key"` // sent as a bearer token
	Secure   bool   `toml:"secure"`  // use https
	// SampleRatio is the fraction of root spans kept. Zero or above one keeps all.
	SampleRatio float64 `toml:"sample_ratio"`
	// Sync exports each span as it ends instead of batching.
	Sync bool `toml:"sync"`
}

// Enabled reports whether an exporter endpoint is configured.
func (c Config) Enabled() bool { return c.Endpoint != "" }

func (c Config) sampler() sdktrace.Sampler {
	if c.SampleRatio <= 0 || c.SampleRatio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SampleRatio))
}

type errorHandler struct{}

func (errorHandler) Handle(err error) {
	slog.Warn("otel error", "error", err)
}

// Init installs the global tracer provider. With tracing disabled it does
// nothing and returns a no-op shutdown.
func Init(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if !cfg.Enabled() {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if !cfg.Secure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if cfg.URLPath != "" {
		opts = append(opts, otlptracehttp.WithURLPath(cfg.URLPath))
	}
	if cfg.APIKey != "" {
		opts = append(opts, otlptracehttp.WithHeaders(map[string]string{
			"Authorization": "Bearer " + cfg.APIKey,
		}))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating otlp exporter: %w", err)
	}

	tp, err := NewProvider(ctx, cfg, exporter)
	if err != nil {
		return nil, err
	}
	otel.SetErrorHandler(errorHandler{})
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	slog.Info("tracing enabled", "endpoint", cfg.Endpoint, "sample_ratio", cfg.SampleRatio, "sync", cfg.Sync)
	return tp.Shutdown, nil
}

// NewProvider builds a tracer provider for the fngate service around exporter.
func NewProvider(ctx context.Context, cfg Config, exporter sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, fmt.Errorf("building trace resource: %w", err)
	}

	exporter = &failureLogger{SpanExporter: exporter}
	processor := sdktrace.WithBatcher(exporter)
	if cfg.Sync {
		processor = sdktrace.WithSyncer(exporter)
	}
	return sdktrace.NewTracerProvider(
		processor,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(cfg.sampler()),
	), nil
}

// failureLogger reports export failures along with the span names lost.
type failureLogger struct {
	sdktrace.SpanExporter
}

func (e *failureLogger) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	err := e.SpanExporter.ExportSpans(ctx, spans)
	if err != nil {
		names := make([]string, len(spans))
		for i, s := range spans {
			names[i] = s.Name()
		}
		slog.Warn("span export failed", "count", len(spans), "spans", names, "error", err)
	}
	return err
}

// Tracer returns the fngate tracer. Until Init installs a provider it is the
// global no-op tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(serviceName)
}
