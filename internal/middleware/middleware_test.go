package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/sakif/blogful/internal/middleware"
)

// newRouter builds a tiny chi router with one parameterised route and one
// route that fails, wrapped in the given middleware.
func newRouter(mws ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(mws...)
	r.Get("/articles/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("article " + chi.URLParam(r, "id")))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	return r
}

func serve(h http.Handler, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

// =========================================================================
// LOGGER
// =========================================================================

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := newRouter(chimiddleware.RequestID, middleware.Logger(logger))
	rr := serve(router, "/articles/42")
	require.Equal(t, http.StatusOK, rr.Code)

	line := buf.String()
	assert.Contains(t, line, `"msg":"request completed"`)
	assert.Contains(t, line, `"level":"INFO"`)
	assert.Contains(t, line, `"path":"/articles/42"`)
	assert.Contains(t, line, `"route":"/articles/{id}"`)
	assert.Contains(t, line, `"status":200`)
	assert.Contains(t, line, `"bytes":10`)
	assert.Contains(t, line, `"request_id":"`)
	assert.NotContains(t, line, `"request_id":""`)
}

func TestLogger_ServerErrorLogsAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	serve(newRouter(middleware.Logger(logger)), "/boom")

	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), `"status":500`)
}

// =========================================================================
// METRICS
// =========================================================================

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := middleware.NewHTTPMetrics(reg)
	router := newRouter(metrics.Middleware)

	serve(router, "/articles/1")
	serve(router, "/articles/2")
	serve(router, "/boom")
	serve(router, "/nowhere")

	expected := `
# HELP blogful_http_requests_total Total number of HTTP requests
# TYPE blogful_http_requests_total counter
blogful_http_requests_total{method="GET",route="/articles/{id}",status="200"} 2
blogful_http_requests_total{method="GET",route="/boom",status="500"} 1
blogful_http_requests_total{method="GET",route="unmatched",status="404"} 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "blogful_http_requests_total")
	assert.NoError(t, err)

	// One histogram series per (method, route).
	series, err := testutil.GatherAndCount(reg, "blogful_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, series)
}

func TestNewHTTPMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		middleware.NewHTTPMetrics(prometheus.NewRegistry())
		middleware.NewHTTPMetrics(prometheus.NewRegistry())
	})
}

// =========================================================================
// TRACING
// =========================================================================

func withRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return exporter
}

func attr(attrs []attribute.KeyValue, key string) attribute.Value {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestTracing_CreatesServerSpan(t *testing.T) {
	exporter := withRecorder(t)

	rr := serve(newRouter(middleware.Tracing), "/articles/7")

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]

	assert.Equal(t, "GET /articles/{id}", span.Name)
	assert.Equal(t, "/articles/{id}", attr(span.Attributes, "http.route").AsString())
	assert.Equal(t, "/articles/7", attr(span.Attributes, "http.path").AsString())
	assert.Equal(t, int64(200), attr(span.Attributes, "http.status_code").AsInt64())
	assert.Equal(t, codes.Unset, span.Status.Code)

	assert.Equal(t, span.SpanContext.TraceID().String(), rr.Header().Get("X-Trace-Id"))
}

func TestTracing_ServerErrorMarksSpan(t *testing.T) {
	exporter := withRecorder(t)

	serve(newRouter(middleware.Tracing), "/boom")

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestTracing_ContinuesIncomingTrace(t *testing.T) {
	exporter := withRecorder(t)

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodGet, "/articles/1", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	rr := httptest.NewRecorder()
	newRouter(middleware.Tracing).ServeHTTP(rr, req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, traceID, spans[0].SpanContext.TraceID().String())
	assert.Equal(t, traceID, rr.Header().Get("X-Trace-Id"))
}
