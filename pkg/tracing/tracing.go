// Package tracing 封装 OpenTelemetry.
//
// 未调用 InitTracer 或 tracing.enabled 为 false 时使用 otel 默认的 noop provider，
// StartSpan 仍可安全调用.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/papervault/pkg/configs"
)

// TracerName 应用内 span 使用的 tracer 名称.
const TracerName = "papervault"

var provider *sdktrace.TracerProvider

// newExporter 按类型创建导出器，创建时不连接后端.
func newExporter(ctx context.Context, cfg configs.TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "otlp-http":
		return otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	case "otlp-grpc":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}

		return otlptracegrpc.New(ctx, opts...)
	case "zipkin":
		return zipkin.New(cfg.Endpoint)
	default:
		return nil, fmt.Errorf("unsupported exporter: %q", cfg.Exporter)
	}
}

func newResource(cfg configs.TracingConfig) (*resource.Resource, error) {
	attrs := make([]attribute.KeyValue, 0, len(cfg.Attributes)+2)
	attrs = append(attrs,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(configs.AppVersion),
	)

	for k, v := range cfg.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}

	return resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
}

// InitTracer 安装全局 TracerProvider 与 W3C 传播器.
func InitTracer(cfg configs.TracingConfig) error {
	if !cfg.Enabled {
		return nil
	}

	ctx := context.Background()

	exp, err := newExporter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create %s exporter: %w", cfg.Exporter, err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return fmt.Errorf("build resource: %w", err)
	}

	var batch []sdktrace.BatchSpanProcessorOption
	if cfg.FlushEvery > 0 {
		batch = append(batch, sdktrace.WithBatchTimeout(cfg.FlushEvery))
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp, batch...),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	return nil
}

// ShutdownTracer 刷出剩余 span.
func ShutdownTracer(ctx context.Context) error {
	if provider == nil {
		return nil
	}

	return provider.Shutdown(ctx)
}

// StartSpan 调用方负责 span.End().
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name, opts...)
}

func SpanContextFrom(ctx context.Context) trace.SpanContext {
	return trace.SpanContextFromContext(ctx)
}
