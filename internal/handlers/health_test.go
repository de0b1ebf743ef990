package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubQueueHealth struct {
	err error
}

func (s stubQueueHealth) HealthCheck(context.Context) error {
	return s.err
}

func doHealthCheck(t *testing.T, h *HealthChecker, url string) (*http.Response, HealthResponse) {
	t.Helper()

	req := httptest.NewRequest("GET", url, nil)
	w := httptest.NewRecorder()
	h.HealthCheck(w, req)

	resp := w.Result()
	t.Cleanup(func() { resp.Body.Close() })

	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp, body
}

func TestHealthCheck_BasicMode(t *testing.T) {
	t.Parallel()

	h := NewHealthChecker(nil)
	resp, body := doHealthCheck(t, h, "/healthz")

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if body.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", body.Status)
	}
	if body.Checks != nil {
		t.Errorf("Expected no checks in basic mode, got %v", body.Checks)
	}
	if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
		t.Errorf("Timestamp '%s' is not valid RFC3339: %v", body.Timestamp, err)
	}
}

func TestHealthCheck_ExtendedMode_AllHealthy(t *testing.T) {
	t.Parallel()

	h := NewHealthCheckerWithDeps(nil, stubPinger{}, stubQueueHealth{})
	resp, body := doHealthCheck(t, h, "/healthz?mode=extended")

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if body.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", body.Status)
	}
	if body.Checks["redis"] != "healthy" {
		t.Errorf("Expected redis check 'healthy', got '%s'", body.Checks["redis"])
	}
	if body.Checks["queue"] != "healthy" {
		t.Errorf("Expected queue check 'healthy', got '%s'", body.Checks["queue"])
	}
}

func TestHealthCheck_ExtendedMode_QueueDown(t *testing.T) {
	t.Parallel()

	h := NewHealthCheckerWithDeps(nil, stubPinger{}, stubQueueHealth{err: errors.New("rabbitmq connection is closed")})
	resp, body := doHealthCheck(t, h, "/healthz?mode=extended")

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", resp.StatusCode)
	}
	if body.Status != "unhealthy" {
		t.Errorf("Expected status 'unhealthy', got '%s'", body.Status)
	}
	if !strings.Contains(body.Checks["queue"], "rabbitmq connection is closed") {
		t.Errorf("Expected queue check to carry the error, got '%s'", body.Checks["queue"])
	}
	if body.Checks["redis"] != "healthy" {
		t.Errorf("Expected redis check 'healthy', got '%s'", body.Checks["redis"])
	}
}

func TestHealthCheck_ExtendedMode_RedisDown(t *testing.T) {
	t.Parallel()

	h := NewHealthCheckerWithDeps(nil, stubPinger{err: errors.New("dial tcp: connection refused")}, stubQueueHealth{})
	resp, body := doHealthCheck(t, h, "/healthz?mode=extended")

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", resp.StatusCode)
	}
	if body.Status != "unhealthy" {
		t.Errorf("Expected status 'unhealthy', got '%s'", body.Status)
	}
	if !strings.Contains(body.Checks["redis"], "unhealthy") {
		t.Errorf("Expected redis check to be unhealthy, got '%s'", body.Checks["redis"])
	}
}

func TestHealthCheck_ExtendedMode_DepsNotConfigured(t *testing.T) {
	t.Parallel()

	// A checker built without redis/queue deps reports only what it has.
	h := NewHealthChecker(nil)
	resp, body := doHealthCheck(t, h, "/healthz?mode=extended")

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if _, ok := body.Checks["redis"]; ok {
		t.Error("Expected no redis check when redis is not configured")
	}
	if _, ok := body.Checks["queue"]; ok {
		t.Error("Expected no queue check when the queue is not configured")
	}
}
