package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

var (
	meter = otel.Meter("pathways")

	toolCalls    metric.Int64Counter
	turnRounds   metric.Int64Histogram
	streamErrors metric.Int64Counter
)

func init() {
	var err error
	toolCalls, err = meter.Int64Counter(
		"pathways_tool_calls_total",
		metric.WithDescription("Tool calls executed during chat turns"),
	)
	if err != nil {
		panic(err)
	}

	turnRounds, err = meter.Int64Histogram(
		"pathways_turn_rounds",
		metric.WithDescription("Model rounds needed to resolve one user turn"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 4, 5, 6, 8, 10),
	)
	if err != nil {
		panic(err)
	}

	streamErrors, err = meter.Int64Counter(
		"pathways_model_stream_errors_total",
		metric.WithDescription("Model streaming failures that aborted a turn"),
	)
	if err != nil {
		panic(err)
	}
}

// RecordToolCall counts one tool execution; status is "ok" or "error".
func RecordToolCall(ctx context.Context, tool string, failed bool) {
	status := "ok"
	if failed {
		status = "error"
	}
	toolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	))
}

func RecordTurnRounds(ctx context.Context, model string, rounds int) {
	turnRounds.Record(ctx, int64(rounds), metric.WithAttributes(
		attribute.String("model", model),
	))
}

func RecordStreamError(ctx context.Context, model string) {
	streamErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
	))
}

func newMeterProvider(ctx context.Context, res *resource.Resource, endpoint string) (*sdkmetric.MeterProvider, error) {
	exporter, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, err
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(
			exporter,
			sdkmetric.WithInterval(5*time.Second),
		)),
	), nil
}
