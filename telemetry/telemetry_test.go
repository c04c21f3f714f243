package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestRecordErrorAndStatus(t *testing.T) {
	span := &mockSpan{}
	assert.True(t, RecordErrorAndStatus(span, errors.New("fail")))
	assert.Equal(t, "fail", span.lastError)
	assert.Equal(t, codes.Error, span.statusCode)

	span = &mockSpan{}
	assert.False(t, RecordErrorAndStatus(span, nil))
	assert.Equal(t, "OK", span.statusMsg)
	assert.Equal(t, codes.Ok, span.statusCode)
}

func TestStartNamesSpanAfterCaller(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
	)
	previous := tracer
	tracer = tp.Tracer("test-tracer")
	t.Cleanup(func() { tracer = previous })

	_, span := Start(context.Background())
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "telemetry::TestStartNamesSpanAfterCaller", spans[0].Name)
}

func TestInitWithoutEndpointsIsNoop(t *testing.T) {
	p, err := Init(context.Background(), "pathways-test", "", "")
	require.NoError(t, err)
	assert.Nil(t, p.tp)
	assert.Nil(t, p.mp)
	p.Shutdown()
}

func TestHTTPClientDoesNotRetry500(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHTTPClient(5 * time.Second)
	resp, err := client.Get(srv.URL)
	if err == nil {
		resp.Body.Close()
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPClientRetries503(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewHTTPClient(10 * time.Second)
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), hits.Load())
}

type mockSpan struct {
	trace.Span
	lastError  string
	statusCode codes.Code
	statusMsg  string
}

func (m *mockSpan) RecordError(err error, _ ...trace.EventOption) {
	m.lastError = err.Error()
}

func (m *mockSpan) SetStatus(code codes.Code, msg string) {
	m.statusCode = code
	m.statusMsg = msg
}
