package metrics

import (
	"context"

	metrics "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/metrics"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewTracerProvider creates the SDK tracer provider and shuts it down with the application.
func NewTracerProvider(lc fx.Lifecycle) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider()
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})
	return tp
}

// Module is an Fx module that provides PrometheusRecorder and OpenTelemetryTracer.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewTracerProvider,
		fx.As(new(trace.TracerProvider)),
	)),
	// Provide PrometheusRecorder as a core.MetricRecorder interface.
	fx.Provide(fx.Annotate(
		NewPrometheusRecorder,
		fx.As(new(metrics.MetricRecorder)),
	)),
	// Provide OpenTelemetryTracer as a core.Tracer interface.
	fx.Provide(fx.Annotate(
		NewOpenTelemetryTracer,
		fx.As(new(metrics.Tracer)),
	)),
)
