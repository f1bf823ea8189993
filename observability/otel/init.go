package otel

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const (
	// ServiceNamespace groups every Veritasor process in the telemetry backend.
	ServiceNamespace = "veritasor"
	// HeadersEnv carries exporter headers kept out of the config file.
	HeadersEnv = "OTEL_EXPORTER_OTLP_HEADERS"

	defaultEndpoint = "localhost:4318"
	attributePrefix = "veritasor."
)

// Config captures the knobs for wiring OpenTelemetry exporters.
type Config struct {
	ServiceName    string
	ServiceVersion string
	InstanceID     string
	Environment    string
	Endpoint       string
	Insecure       bool
	// Headers from the config file. Entries parsed from HeadersEnv are
	// overridden by these.
	Headers map[string]string
	// Attributes are added to the resource under the "veritasor." prefix,
	// e.g. the storage backend or the indexer driver.
	Attributes map[string]string
	Metrics    bool
	Traces     bool
}

// Enabled reports whether any exporter is requested.
func (c Config) Enabled() bool { return c.Metrics || c.Traces }

// Init installs the W3C propagator and, when enabled, the OTLP trace and
// metric providers. The returned shutdown flushes providers in reverse
// order of installation.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if strings.TrimSpace(cfg.ServiceName) == "" {
		return nil, fmt.Errorf("service name required for telemetry")
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if !cfg.Enabled() {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.Merge(resource.Default(), Resource(cfg))
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	headers := mergeHeaders(ParseHeaders(os.Getenv(HeadersEnv)), cfg.Headers)

	var shutdowns []func(context.Context) error
	if cfg.Traces {
		tp, err := newTracerProvider(ctx, res, endpoint, cfg.Insecure, headers)
		if err != nil {
			return nil, err
		}
		otel.SetTracerProvider(tp)
		shutdowns = append(shutdowns, tp.Shutdown)
	}
	if cfg.Metrics {
		mp, err := newMeterProvider(ctx, res, endpoint, cfg.Insecure, headers)
		if err != nil {
			for i := len(shutdowns) - 1; i >= 0; i-- {
				_ = shutdowns[i](ctx)
			}
			return nil, err
		}
		otel.SetMeterProvider(mp)
		shutdowns = append(shutdowns, mp.Shutdown)
	}

	return func(ctx context.Context) error {
		var first error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			if err := shutdowns[i](ctx); err != nil && first == nil {
				first = err
			}
		}
		return first
	}, nil
}

// Resource describes the running Veritasor process.
func Resource(cfg Config) *resource.Resource {
	attrs := []attribute.KeyValue{
		semconv.ServiceNamespaceKey.String(ServiceNamespace),
		semconv.ServiceNameKey.String(strings.TrimSpace(cfg.ServiceName)),
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersionKey.String(cfg.ServiceVersion))
	}
	if cfg.InstanceID != "" {
		attrs = append(attrs, semconv.ServiceInstanceIDKey.String(cfg.InstanceID))
	}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentKey.String(cfg.Environment))
	}
	keys := make([]string, 0, len(cfg.Attributes))
	for key := range cfg.Attributes {
		if strings.TrimSpace(key) != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		name := attributePrefix + strings.ToLower(strings.TrimSpace(key))
		attrs = append(attrs, attribute.String(name, cfg.Attributes[key]))
	}
	return resource.NewSchemaless(attrs...)
}

func newTracerProvider(ctx context.Context, res *resource.Resource, endpoint string, insecure bool, headers map[string]string) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(headers))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(2*time.Second),
			sdktrace.WithMaxExportBatchSize(512),
		),
	), nil
}

func newMeterProvider(ctx context.Context, res *resource.Resource, endpoint string, insecure bool, headers map[string]string) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(headers))
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))),
	), nil
}

// ParseHeaders converts a comma-separated header string (key=value,foo=bar)
// into an exporter header map. Malformed pairs are skipped.
func ParseHeaders(raw string) map[string]string {
	headers := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers
}

func mergeHeaders(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
