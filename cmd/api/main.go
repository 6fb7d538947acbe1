package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ventaflow/dispatch-backend/api/routes"
	"github.com/ventaflow/dispatch-backend/internal/agents"
	"github.com/ventaflow/dispatch-backend/internal/assignment"
	"github.com/ventaflow/dispatch-backend/internal/notify"
	"github.com/ventaflow/dispatch-backend/internal/orderstore"
	"github.com/ventaflow/dispatch-backend/internal/presence"
	"github.com/ventaflow/dispatch-backend/pkg/config"
	"github.com/ventaflow/dispatch-backend/pkg/db"
	"github.com/ventaflow/dispatch-backend/pkg/logger"
	"github.com/ventaflow/dispatch-backend/pkg/metrics"
	"github.com/ventaflow/dispatch-backend/pkg/migrate"
	"github.com/ventaflow/dispatch-backend/pkg/pubsub"
	"github.com/ventaflow/dispatch-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	engine, err := buildEngine(cfg, logg, dbClient, redisClient, pubsubClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build assignment engine", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, engine),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	engine.WaitNotifications()
}

func buildEngine(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	pubsubClient *pubsub.Client,
) (*assignment.Engine, error) {
	gormStore := orderstore.NewGormStore(dbClient.DB())
	redisStore, err := orderstore.NewRedisStore(redisClient, cfg.Dispatch.OrderDocTTL)
	if err != nil {
		return nil, err
	}
	dual, err := orderstore.NewDual(logg, redisStore, gormStore)
	if err != nil {
		return nil, err
	}

	directory, err := agents.NewDirectory(agents.NewRepository(dbClient.DB()))
	if err != nil {
		return nil, err
	}
	presenceSource, err := presence.NewRedisSource(redisClient, cfg.Presence)
	if err != nil {
		return nil, err
	}
	cursor, err := assignment.NewRedisCursor(redisClient, "agents", cfg.Dispatch.CursorRetries)
	if err != nil {
		return nil, err
	}
	dispatcher, err := notify.NewPubSubDispatcher(pubsubClient.NotificationPublisher())
	if err != nil {
		return nil, err
	}

	return assignment.NewEngine(assignment.EngineParams{
		Store:      dual,
		Finder:     gormStore,
		Cursor:     cursor,
		Directory:  directory,
		Presence:   presenceSource,
		Dispatcher: dispatcher,
		Metrics:    metrics.NewDispatchMetrics(prometheus.DefaultRegisterer),
		Logger:     logg,
	})
}
