package server

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgalpaj/azure-throttling-exporter/internal/config"
	"github.com/dgalpaj/azure-throttling-exporter/internal/logger"
	"github.com/dgalpaj/azure-throttling-exporter/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// fakeStatus implements PollerStatus for handler tests
type fakeStatus struct {
	ready     bool
	lastErr   error
	lastCycle time.Time
	failures  int
}

func (f *fakeStatus) IsReady() bool            { return f.ready }
func (f *fakeStatus) LastError() error         { return f.lastErr }
func (f *fakeStatus) LastCycleTime() time.Time { return f.lastCycle }
func (f *fakeStatus) ConsecutiveFailures() int { return f.failures }

func testConfig() *config.Config {
	return &config.Config{
		SubscriptionID: "test-subscription",
		HTTPPort:       8080,
		PollInterval:   60,
		LogLevel:       "error",
	}
}

func newTestServer(status PollerStatus) (*Server, prometheus.Registerer) {
	reg := prometheus.NewRegistry()
	return NewServer(testConfig(), status, reg, logger.New("error")), reg
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(&fakeStatus{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("Body = %q, want healthy status", w.Body.String())
	}
}

func TestReadyEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		status     *fakeStatus
		wantCode   int
		wantInBody string
	}{
		{
			name:       "not ready before first success",
			status:     &fakeStatus{ready: false},
			wantCode:   http.StatusServiceUnavailable,
			wantInBody: "waiting for first successful poll",
		},
		{
			name:       "ready after success",
			status:     &fakeStatus{ready: true},
			wantCode:   http.StatusOK,
			wantInBody: "ready",
		},
		{
			name:       "not ready when latest cycle failed",
			status:     &fakeStatus{ready: true, lastErr: errors.New("fetch failed")},
			wantCode:   http.StatusServiceUnavailable,
			wantInBody: "fetch failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(tt.status)

			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			w := httptest.NewRecorder()
			srv.handleReady(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantCode)
			}
			if !strings.Contains(w.Body.String(), tt.wantInBody) {
				t.Errorf("Body = %q, want it to contain %q", w.Body.String(), tt.wantInBody)
			}
		})
	}
}

func TestIndexEndpoint(t *testing.T) {
	status := &fakeStatus{
		ready:     true,
		lastCycle: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		failures:  1,
	}
	srv, _ := newTestServer(status)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.handleIndex(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	for _, want := range []string{"test-subscription", "Ready", "2026-08-25", "/metrics", "/health", "/ready"} {
		if !strings.Contains(body, want) {
			t.Errorf("Index page should contain %q", want)
		}
	}
}

func TestIndexEndpoint_NotReady(t *testing.T) {
	srv, _ := newTestServer(&fakeStatus{ready: false})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.handleIndex(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "Not Ready") {
		t.Error("Index page should report Not Ready")
	}
	if !strings.Contains(body, "Never") {
		t.Error("Index page should report Never for a zero last-cycle time")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := metrics.NewPrometheusSink(reg)
	sink.SetRemaining("Microsoft.Compute/HighCostGet3Min", 159)
	sink.IncFailures()

	srv := NewServer(testConfig(), &fakeStatus{ready: true}, reg, logger.New("error"))

	ts := httptest.NewServer(srv.server.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}

	text := string(body)
	wantLines := []string{
		`ms_ratelimit_remaining_resource_gauge{rate="Microsoft.Compute/HighCostGet3Min"} 159`,
		"ms_ratelimit_failures_total 1",
	}
	for _, want := range wantLines {
		if !strings.Contains(text, want) {
			t.Errorf("Metrics output should contain %q", want)
		}
	}
}
