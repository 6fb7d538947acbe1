package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ventaflow/dispatch-backend/api/validators"
	"github.com/ventaflow/dispatch-backend/internal/assignment"
	"github.com/ventaflow/dispatch-backend/pkg/logger"
)

type sweepRunner interface {
	ReconcilePending(ctx context.Context, limit int) (assignment.SweepResult, error)
}

// sweepResponse is the operational contract of the manual trigger. It is a
// stable shape consumed by runbooks and scripts, kept separate from the
// envelope the rest of the API uses.
type sweepResponse struct {
	OK     bool                    `json:"ok"`
	Result *assignment.SweepResult `json:"result,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

// DispatchSweep runs a reconciliation sweep on demand. The shared-secret
// middleware guards it; an optional `limit` query parameter can lower the
// configured maximum, never raise it.
func DispatchSweep(engine sweepRunner, maxLimit int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := validators.ParseQueryInt(r, "limit", maxLimit, 1, maxLimit)
		if err != nil {
			writeSweepJSON(w, http.StatusBadRequest, sweepResponse{OK: false, Error: err.Error()})
			return
		}

		result, err := engine.ReconcilePending(ctx, limit)
		if err != nil {
			if errors.Is(err, assignment.ErrNoActiveAgents) {
				// An empty pool is an operational state, not a server fault.
				writeSweepJSON(w, http.StatusOK, sweepResponse{OK: false, Error: "no active agents available"})
				return
			}
			logg.Error(ctx, "manual sweep failed", err)
			writeSweepJSON(w, http.StatusInternalServerError, sweepResponse{OK: false, Error: "sweep failed"})
			return
		}

		logg.Info(logg.WithFields(ctx, map[string]any{
			"found":     result.Found,
			"processed": result.Processed,
		}), "manual sweep complete")
		writeSweepJSON(w, http.StatusOK, sweepResponse{OK: true, Result: &result})
	}
}

func writeSweepJSON(w http.ResponseWriter, status int, payload sweepResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode sweep response","err":"%v"}`, err)
	}
}
