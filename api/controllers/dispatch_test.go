package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ventaflow/dispatch-backend/internal/assignment"
	"github.com/ventaflow/dispatch-backend/pkg/logger"
)

type stubSweepRunner struct {
	result assignment.SweepResult
	err    error
	limits []int
}

func (s *stubSweepRunner) ReconcilePending(_ context.Context, limit int) (assignment.SweepResult, error) {
	s.limits = append(s.limits, limit)
	return s.result, s.err
}

func sweepTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func decodeSweepResponse(t *testing.T, rec *httptest.ResponseRecorder) sweepResponse {
	t.Helper()
	var payload sweepResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func TestDispatchSweepSuccess(t *testing.T) {
	runner := &stubSweepRunner{result: assignment.SweepResult{Processed: 2, Found: 3}}
	handler := DispatchSweep(runner, 100, sweepTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch/sweep", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	payload := decodeSweepResponse(t, rec)
	if !payload.OK {
		t.Fatal("expected ok=true")
	}
	if payload.Result == nil || payload.Result.Processed != 2 || payload.Result.Found != 3 {
		t.Fatalf("unexpected result: %+v", payload.Result)
	}
	if len(runner.limits) != 1 || runner.limits[0] != 100 {
		t.Fatalf("expected default limit 100, got %v", runner.limits)
	}
}

func TestDispatchSweepHonorsLimitParam(t *testing.T) {
	runner := &stubSweepRunner{}
	handler := DispatchSweep(runner, 100, sweepTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch/sweep?limit=10", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(runner.limits) != 1 || runner.limits[0] != 10 {
		t.Fatalf("expected limit 10, got %v", runner.limits)
	}
}

func TestDispatchSweepRejectsOversizedLimit(t *testing.T) {
	runner := &stubSweepRunner{}
	handler := DispatchSweep(runner, 100, sweepTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch/sweep?limit=5000", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(runner.limits) != 0 {
		t.Fatal("sweep must not run on invalid input")
	}
}

func TestDispatchSweepEmptyPoolReportsReason(t *testing.T) {
	runner := &stubSweepRunner{err: assignment.ErrNoActiveAgents}
	handler := DispatchSweep(runner, 100, sweepTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch/sweep", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	payload := decodeSweepResponse(t, rec)
	if payload.OK {
		t.Fatal("expected ok=false")
	}
	if payload.Error == "" {
		t.Fatal("expected reason in error field")
	}
}

func TestDispatchSweepInternalError(t *testing.T) {
	runner := &stubSweepRunner{err: errors.New("replica down")}
	handler := DispatchSweep(runner, 100, sweepTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch/sweep", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	payload := decodeSweepResponse(t, rec)
	if payload.OK {
		t.Fatal("expected ok=false")
	}
}
