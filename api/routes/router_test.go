package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ventaflow/dispatch-backend/internal/assignment"
	"github.com/ventaflow/dispatch-backend/pkg/config"
	"github.com/ventaflow/dispatch-backend/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubEngine struct {
	result assignment.SweepResult
	err    error
	calls  int
}

func (s *stubEngine) ReconcilePending(context.Context, int) (assignment.SweepResult, error) {
	s.calls++
	return s.result, s.err
}

func newTestRouter(engine *stubEngine) http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.Dispatch.SharedSecret = "s3cret"
	cfg.Dispatch.ManualSweepLimit = 100
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewRouter(cfg, logg, stubPinger{}, stubPinger{}, engine)
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(&stubEngine{})

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestSweepRouteRequiresSecret(t *testing.T) {
	engine := &stubEngine{}
	router := newTestRouter(engine)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch/sweep", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if engine.calls != 0 {
		t.Fatal("sweep must not run without the secret")
	}
}

func TestSweepRouteRunsWithSecret(t *testing.T) {
	engine := &stubEngine{result: assignment.SweepResult{Processed: 1, Found: 2}}
	router := newTestRouter(engine)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch/sweep", nil)
	req.Header.Set("X-Dispatch-Secret", "s3cret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if engine.calls != 1 {
		t.Fatalf("expected one sweep, got %d", engine.calls)
	}

	var payload struct {
		OK     bool `json:"ok"`
		Result *struct {
			Processed int `json:"processed"`
			Found     int `json:"found"`
		} `json:"result"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.OK || payload.Result == nil || payload.Result.Processed != 1 || payload.Result.Found != 2 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
