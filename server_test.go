package postboard

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_New(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := New()

	assert.NotNil(t, server)
	assert.NotNil(t, server.Engine())
	assert.Equal(t, RuntimeHTTP, server.runtime)
}

func TestServer_NewLambdaFromEnv(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("LAMBDA_RUNTIME", "true")

	assert.Equal(t, RuntimeLambda, New().runtime)
}

func TestServer_SetBasePath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := New()
	server.SetBasePath("/api/v1")

	server.Group("").GET("/test", func(c *Context) (string, error) {
		return "test", nil
	})

	w := httptest.NewRecorder()
	server.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	server.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Health(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := New()
	server.SetBasePath("/api/v1")
	server.Health(func() any { return "ok" })

	w := httptest.NewRecorder()
	server.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServer_HandlerLogsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	server := New().WithLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	server.Group("").GET("/ping", func() (string, error) { return "pong", nil })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "handled", line["msg"])
	assert.Equal(t, "/ping", line["path"])
	assert.Equal(t, float64(http.StatusOK), line["status"])
	assert.Equal(t, "req-42", line["request_id"])
}

func TestServer_RequestIDIsGenerated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := New()
	server.Group("").GET("/id", func(c *Context) (string, error) { return c.RequestID(), nil })

	w := httptest.NewRecorder()
	server.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))

	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())
}

func TestServer_DefaultCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := New().DefaultCORS()
	server.Group("").GET("/test", func() (string, error) { return "", nil })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	server.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_CustomCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := New()

	server.CustomCORS([]string{"http://localhost:3000"}, []string{"GET", "POST"}, []string{"Content-Type"}, 24*time.Hour)
	server.Engine().GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	server.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET,POST", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
}

func TestServer_StartInvalidPort(t *testing.T) {
	gin.SetMode(gin.TestMode)

	assert.Error(t, New().Start(-1))
	assert.Error(t, New().Start(70000))
}

func TestServer_StartContextShutsDown(t *testing.T) {
	gin.SetMode(gin.TestMode)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- New().StartContext(ctx, port) }()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}
