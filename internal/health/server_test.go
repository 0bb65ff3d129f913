package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndLive(t *testing.T) {
	s := NewServer(Config{ServiceName: "tradesim", Version: "1.2.3", Logger: quietLogger()})
	h := s.Handler()

	rec := get(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "tradesim", body.Service)
	assert.Equal(t, "1.2.3", body.Version)
	assert.NotEmpty(t, body.Timestamp)

	assert.Equal(t, http.StatusOK, get(t, h, "/live").Code)
}

func TestReadyChecks(t *testing.T) {
	var quoteErr error
	s := NewServer(Config{
		ServiceName: "tradesim",
		Logger:      quietLogger(),
		Checks: []Checker{CheckFunc{Label: "data_source", Fn: func(context.Context) error {
			return quoteErr
		}}},
	})
	h := s.Handler()

	rec := get(t, h, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.SetReady(true)
	rec = get(t, h, "/ready")
	require.Equal(t, http.StatusOK, rec.Code)
	var body ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Checks["data_source"])

	quoteErr = errors.New("rate limited")
	rec = get(t, h, "/ready")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body.Status)
	assert.Equal(t, "error: rate limited", body.Checks["data_source"])
}

func TestMetricsPathMounted(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tradesim_up 1\n"))
	})
	s := NewServer(Config{MetricsPath: "/metrics", MetricsHandler: metrics, Logger: quietLogger()})

	rec := get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tradesim_up")

	bare := NewServer(Config{Logger: quietLogger()})
	assert.Equal(t, http.StatusNotFound, get(t, bare.Handler(), "/metrics").Code)
}

func TestStartAndShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer(Config{ServiceName: "tradesim", Logger: quietLogger()})

	addr, err := s.Start(ctx)
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	base := "http://127.0.0.1:" + port

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(base + "/live")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	assert.Eventually(t, func() bool {
		resp, err := client.Get(base + "/live")
		if err == nil {
			_ = resp.Body.Close()
		}
		return err != nil
	}, 3*time.Second, 50*time.Millisecond)
}
