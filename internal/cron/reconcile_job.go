package cron

import (
	"context"
	"errors"
	"fmt"

	"github.com/ventaflow/dispatch-backend/internal/assignment"
	"github.com/ventaflow/dispatch-backend/pkg/logger"
)

type reconcileEngine interface {
	ReconcilePending(ctx context.Context, limit int) (assignment.SweepResult, error)
}

// ReconcileJobParams configure the periodic assignment sweep.
type ReconcileJobParams struct {
	Logger *logger.Logger
	Engine reconcileEngine
	Limit  int
}

// NewReconcileJob builds the cron job that re-runs stuck orders through the
// assignment flow.
func NewReconcileJob(params ReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("assignment engine required")
	}
	if params.Limit <= 0 {
		return nil, fmt.Errorf("sweep limit must be positive")
	}
	return &reconcileJob{
		logg:   params.Logger,
		engine: params.Engine,
		limit:  params.Limit,
	}, nil
}

type reconcileJob struct {
	logg   *logger.Logger
	engine reconcileEngine
	limit  int
}

func (j *reconcileJob) Name() string { return "reconcile-pending" }

func (j *reconcileJob) Run(ctx context.Context) error {
	result, err := j.engine.ReconcilePending(ctx, j.limit)
	if err != nil {
		if errors.Is(err, assignment.ErrNoActiveAgents) {
			// Quiet hours. The next relevant presence event retries sooner
			// than the ticker does.
			j.logg.Warn(ctx, "sweep skipped, no active agents")
			return nil
		}
		return fmt.Errorf("reconcile pending orders: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"found":     result.Found,
		"processed": result.Processed,
	})
	j.logg.Info(logCtx, "reconcile sweep complete")
	return nil
}
