package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/attendance-check/internal/config"
	"github.com/kozaktomas/attendance-check/internal/verdict"
)

type fixedDetector struct {
	v verdict.Verdict
}

func (d fixedDetector) Detect(context.Context, string) verdict.Verdict {
	return d.v
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{Oracle: config.OracleConfig{Provider: "none", FailurePolicy: config.FailOpen}}
	det := fixedDetector{v: verdict.Verdict{Fake: true, Reason: verdict.GlareDetected, Brightness: 231}}
	srv := NewServer(cfg, "127.0.0.1", 0, det, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers on API responses")
	}
}

func TestServer_Classify(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/classify", "application/json",
		strings.NewReader(`{"url":"https://cdn.example/r1.jpg","rider_id":"R1"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["is_fake"] != true || body["reason"] != "GlareDetected" {
		t.Errorf("unexpected verdict: %v", body)
	}
	if body["rider_id"] != "R1" {
		t.Errorf("expected rider id echoed, got %v", body["rider_id"])
	}
}

func TestServer_RouteErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"unknown route", http.MethodGet, "/api/v1/albums", http.StatusNotFound},
		{"wrong method", http.MethodGet, "/api/v1/classify", http.StatusMethodNotAllowed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(tc.method, ts.URL+tc.path, nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Errorf("expected status %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

func TestServer_Shutdown(t *testing.T) {
	cfg := &config.Config{}
	srv := NewServer(cfg, "127.0.0.1", 0, fixedDetector{}, nil)

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown of idle server failed: %v", err)
	}
}
