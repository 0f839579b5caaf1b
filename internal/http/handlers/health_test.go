package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

var (
	up   = PingFunc(func(context.Context) error { return nil })
	down = PingFunc(func(context.Context) error { return errors.New("connection refused") })
)

func serveHealth(h *HealthHandler, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/readyz", h.Readiness)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestReadiness(t *testing.T) {
	cases := []struct {
		name  string
		store Pinger
		redis Pinger
		code  int
	}{
		{"all up", up, up, http.StatusOK},
		{"optional check down", up, down, http.StatusOK},
		{"store down", down, up, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandler(tc.store, "v1")
			h.AddCheck("redis", tc.redis)

			w := serveHealth(h, "/readyz")
			if w.Code != tc.code {
				t.Fatalf("expected %d got %d: %s", tc.code, w.Code, w.Body.String())
			}
			var res HealthResponse
			if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if res.Checks["store"] == "" || res.Checks["redis"] == "" {
				t.Fatalf("missing checks: %v", res.Checks)
			}
			if res.Version != "v1" {
				t.Fatalf("unexpected version %q", res.Version)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	if w := serveHealth(NewHealthHandler(up, "v1"), "/health"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if w := serveHealth(NewHealthHandler(down, "v1"), "/health"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", w.Code)
	}
}
