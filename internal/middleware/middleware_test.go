package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/brawl-replay/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestPrometheusMiddleware_BasicMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := gin.New()

	promMw := NewPrometheusMiddleware("test", registry)
	r.Use(promMw.Handler())

	r.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	r.GET("/error", func(c *gin.Context) {
		c.JSON(500, gin.H{"error": "test error"})
	})

	assert.Equal(t, 200, serve(r, "GET", "/test").Code)
	assert.Equal(t, 500, serve(r, "GET", "/error").Code)

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)

	var durationFound, errorsFound bool
	for _, mf := range metricFamilies {
		switch mf.GetName() {
		case "test_http_request_duration_seconds":
			durationFound = true
			assert.Equal(t, "Длительность HTTP-запросов.", mf.GetHelp())
			assert.Len(t, mf.Metric, 2, "Две серии: /test и /error")
		case "test_http_request_errors_total":
			errorsFound = true
			require.Len(t, mf.Metric, 1)
			assert.Equal(t, float64(1), mf.Metric[0].GetCounter().GetValue())
		}
	}

	assert.True(t, durationFound, "Метрика длительности не найдена")
	assert.True(t, errorsFound, "Метрика ошибок не найдена")
}

func TestPrometheusMiddleware_InflightRequests(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := gin.New()

	promMw := NewPrometheusMiddleware("test", registry)
	r.Use(promMw.Handler())

	entered := make(chan struct{})
	release := make(chan struct{})
	r.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.JSON(200, gin.H{"ok": true})
	})

	done := make(chan struct{})
	go func() {
		serve(r, "GET", "/slow")
		close(done)
	}()

	<-entered
	inflight := func() float64 {
		metricFamilies, err := registry.Gather()
		require.NoError(t, err)
		for _, mf := range metricFamilies {
			if mf.GetName() == "test_http_requests_inflight" {
				return mf.Metric[0].GetGauge().GetValue()
			}
		}
		t.Fatal("Метрика inflight не найдена")
		return 0
	}
	assert.Equal(t, float64(1), inflight(), "Один активный запрос")

	close(release)
	<-done
	assert.Equal(t, float64(0), inflight(), "После завершения inflight сбрасывается")
}

func TestRequestLogger_TraceID(t *testing.T) {
	r := gin.New()
	r.Use(NewRequestLogger(logging.NewWriterLogger("http", &bytes.Buffer{}, logging.INFO)).Handler())

	var capturedTraceID string
	r.GET("/test", func(c *gin.Context) {
		traceID, exists := c.Get("trace_id")
		require.True(t, exists, "trace_id должен быть в контексте")
		capturedTraceID = traceID.(string)
		c.JSON(200, gin.H{"trace_id": capturedTraceID})
	})

	w := serve(r, "GET", "/test")
	assert.Equal(t, 200, w.Code)
	assert.NotEmpty(t, capturedTraceID)
	assert.Equal(t, capturedTraceID, w.Header().Get(TraceHeader))
	assert.Contains(t, w.Body.String(), capturedTraceID)
}

func TestRequestLogger_LogFormat(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(NewRequestLogger(logging.NewWriterLogger("http", &buf, logging.INFO)).Handler())
	r.GET("/ok", func(c *gin.Context) { c.Status(200) })
	r.GET("/boom", func(c *gin.Context) { c.Status(503) })

	serve(r, "GET", "/ok")
	out := buf.String()
	assert.Contains(t, out, "GET /ok 200")
	assert.Contains(t, out, "component=http")
	assert.Contains(t, out, "level=info")
	assert.NotContains(t, out, "▶", "Входящий запрос пишется на уровне DEBUG")

	buf.Reset()
	serve(r, "GET", "/boom")
	assert.Contains(t, buf.String(), "level=warning", "5xx логируется предупреждением")
}

func TestMiddleware_Integration(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := gin.New()

	r.Use(NewRequestLogger(logging.NewWriterLogger("http", &bytes.Buffer{}, logging.WARN)).Handler())
	r.Use(NewPrometheusMiddleware("integration_test", registry).Handler())

	r.GET("/api/session", func(c *gin.Context) {
		traceID, _ := c.Get("trace_id")
		c.JSON(200, gin.H{"status": "ok", "trace_id": traceID})
	})

	for i := 0; i < 5; i++ {
		assert.Equal(t, 200, serve(r, "GET", "/api/session").Code)
	}

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)

	var requestsCount int
	for _, mf := range metricFamilies {
		if mf.GetName() == "integration_test_http_request_duration_seconds" {
			for _, metric := range mf.Metric {
				requestsCount += int(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	assert.Equal(t, 5, requestsCount, "Должно быть записано 5 запросов")
}

func TestPrometheusMiddleware_MetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := gin.New()

	promMw := NewPrometheusMiddleware("test", registry)
	r.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(r, registry)

	r.GET("/api/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	assert.Equal(t, 200, serve(r, "GET", "/api/test").Code)

	w := serve(r, "GET", "/metrics")
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "# HELP test_http_request_duration_seconds")
	assert.NotContains(t, w.Body.String(), "go_goroutines", "Отдаётся только собственный реестр")
}

func TestPrometheusMiddleware_UnmatchedPath(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := gin.New()
	r.Use(NewPrometheusMiddleware("nf", registry).Handler())

	assert.Equal(t, 404, serve(r, "GET", "/missing").Code)

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range metricFamilies {
		if mf.GetName() == "nf_http_request_errors_total" {
			require.Len(t, mf.Metric, 1)
			for _, lp := range mf.Metric[0].GetLabel() {
				if lp.GetName() == "path" {
					assert.Equal(t, "/missing", lp.GetValue(), "Несматченный маршрут помечается URL")
				}
			}
		}
	}
}
