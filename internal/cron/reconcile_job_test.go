package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ventaflow/dispatch-backend/internal/assignment"
	"github.com/ventaflow/dispatch-backend/pkg/logger"
)

type fakeReconcileEngine struct {
	result assignment.SweepResult
	err    error
	limits []int
}

func (f *fakeReconcileEngine) ReconcilePending(_ context.Context, limit int) (assignment.SweepResult, error) {
	f.limits = append(f.limits, limit)
	return f.result, f.err
}

func newReconcileJob(t *testing.T, engine *fakeReconcileEngine) Job {
	t.Helper()
	job, err := NewReconcileJob(ReconcileJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Engine: engine,
		Limit:  25,
	})
	if err != nil {
		t.Fatalf("NewReconcileJob: %v", err)
	}
	return job
}

func TestReconcileJobRunsSweepWithConfiguredLimit(t *testing.T) {
	engine := &fakeReconcileEngine{result: assignment.SweepResult{Processed: 3, Found: 4}}
	job := newReconcileJob(t, engine)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(engine.limits) != 1 || engine.limits[0] != 25 {
		t.Fatalf("unexpected limits: %v", engine.limits)
	}
}

func TestReconcileJobTreatsEmptyPoolAsNoop(t *testing.T) {
	engine := &fakeReconcileEngine{err: assignment.ErrNoActiveAgents}
	job := newReconcileJob(t, engine)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("expected nil on empty pool, got %v", err)
	}
}

func TestReconcileJobPropagatesSweepFailure(t *testing.T) {
	engine := &fakeReconcileEngine{err: errors.New("db down")}
	job := newReconcileJob(t, engine)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestReconcileJobRejectsBadParams(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	if _, err := NewReconcileJob(ReconcileJobParams{Logger: logg, Limit: 25}); err == nil {
		t.Fatal("expected error without engine")
	}
	if _, err := NewReconcileJob(ReconcileJobParams{Engine: &fakeReconcileEngine{}, Limit: 25}); err == nil {
		t.Fatal("expected error without logger")
	}
	if _, err := NewReconcileJob(ReconcileJobParams{Logger: logg, Engine: &fakeReconcileEngine{}}); err == nil {
		t.Fatal("expected error without limit")
	}
}
