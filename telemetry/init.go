package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.30.0"

	"pathways/config"
)

// Providers holds the SDK providers installed by Init so they can be flushed.
type Providers struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// Init installs OTLP/HTTP exporters for the endpoints that are set. With
// both endpoints empty the global no-op providers stay in place.
func Init(ctx context.Context, serviceName, tracesEndpoint, metricsEndpoint string) (*Providers, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	p := &Providers{}
	if tracesEndpoint == "" && metricsEndpoint == "" {
		return p, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if tracesEndpoint != "" {
		p.tp, err = newTracerProvider(ctx, res, tracesEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create tracer provider: %w", err)
		}
		otel.SetTracerProvider(p.tp)
	}

	if metricsEndpoint != "" {
		p.mp, err = newMeterProvider(ctx, res, metricsEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create meter provider: %w", err)
		}
		otel.SetMeterProvider(p.mp)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Telemetry] exporters enabled (traces=%q metrics=%q)", tracesEndpoint, metricsEndpoint)
	}
	return p, nil
}

// Shutdown flushes and stops the installed providers, bounded at 5s.
func (p *Providers) Shutdown() {
	if p == nil || (p.tp == nil && p.mp == nil) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if p.tp != nil {
		if err := p.tp.Shutdown(ctx); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[Telemetry] error shutting down tracer provider: %v", err)
		}
	}
	if p.mp != nil {
		if err := p.mp.Shutdown(ctx); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[Telemetry] error shutting down meter provider: %v", err)
		}
	}
}

// NewHTTPClient returns an HTTP client with retries and OpenTelemetry
// instrumentation, used for calls to the Pathways API.
func NewHTTPClient(timeout time.Duration) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.RetryMax = 3
	retryClient.CheckRetry = dontRetry500StatusPolicy(retryablehttp.ErrorPropagatedRetryPolicy)
	if config.DebugLog != nil {
		retryClient.Logger = config.DebugLog
	} else {
		retryClient.Logger = nil
	}

	stdClient := retryClient.StandardClient()
	stdClient.Timeout = timeout
	stdClient.Transport = otelhttp.NewTransport(stdClient.Transport)
	return stdClient
}

// NewTracedHTTPClient returns a plain client with OpenTelemetry
// instrumentation. The model SDKs apply their own retry policy.
func NewTracedHTTPClient() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}

func dontRetry500StatusPolicy(policy retryablehttp.CheckRetry) retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		if resp != nil && resp.StatusCode == http.StatusInternalServerError {
			return false, err
		}
		return policy(ctx, resp, err)
	}
}
