package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ventaflow/dispatch-backend/api/controllers"
	"github.com/ventaflow/dispatch-backend/api/middleware"
	"github.com/ventaflow/dispatch-backend/internal/assignment"
	"github.com/ventaflow/dispatch-backend/pkg/config"
	"github.com/ventaflow/dispatch-backend/pkg/logger"
)

type sweepEngine interface {
	ReconcilePending(ctx context.Context, limit int) (assignment.SweepResult, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	engine sweepEngine,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/v1/dispatch", func(r chi.Router) {
		r.Use(middleware.SharedSecret(cfg.Dispatch.SharedSecret, logg))
		r.Post("/sweep", controllers.DispatchSweep(engine, cfg.Dispatch.ManualSweepLimit, logg))
	})

	return r
}
