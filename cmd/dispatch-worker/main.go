package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/ventaflow/dispatch-backend/internal/agents"
	"github.com/ventaflow/dispatch-backend/internal/assignment"
	"github.com/ventaflow/dispatch-backend/internal/notify"
	"github.com/ventaflow/dispatch-backend/internal/orderstore"
	"github.com/ventaflow/dispatch-backend/internal/presence"
	"github.com/ventaflow/dispatch-backend/pkg/config"
	"github.com/ventaflow/dispatch-backend/pkg/db"
	"github.com/ventaflow/dispatch-backend/pkg/idempotency"
	"github.com/ventaflow/dispatch-backend/pkg/logger"
	"github.com/ventaflow/dispatch-backend/pkg/metrics"
	"github.com/ventaflow/dispatch-backend/pkg/migrate"
	"github.com/ventaflow/dispatch-backend/pkg/pubsub"
	"github.com/ventaflow/dispatch-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "dispatch-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "dispatch-worker"

	logg = logger.New(logger.Options{
		ServiceName: "dispatch-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "failed to close database client", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		requireResource(ctx, logg, "dev migrations", err)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	ordersSub := pubsubClient.OrdersSubscription()
	if ordersSub == nil {
		requireResource(ctx, logg, "orders subscription", errors.New("subscription not configured"))
	}
	presenceSub := pubsubClient.PresenceSubscription()
	if presenceSub == nil {
		requireResource(ctx, logg, "presence subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	gormStore := orderstore.NewGormStore(dbClient.DB())
	redisStore, err := orderstore.NewRedisStore(redisClient, cfg.Dispatch.OrderDocTTL)
	requireResource(ctx, logg, "order redis store", err)
	dual, err := orderstore.NewDual(logg, redisStore, gormStore)
	requireResource(ctx, logg, "order dual store", err)

	directory, err := agents.NewDirectory(agents.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "agent directory", err)
	presenceSource, err := presence.NewRedisSource(redisClient, cfg.Presence)
	requireResource(ctx, logg, "presence source", err)
	cursor, err := assignment.NewRedisCursor(redisClient, "agents", cfg.Dispatch.CursorRetries)
	requireResource(ctx, logg, "rotation cursor", err)
	dispatcher, err := notify.NewPubSubDispatcher(pubsubClient.NotificationPublisher())
	requireResource(ctx, logg, "notification dispatcher", err)

	engine, err := assignment.NewEngine(assignment.EngineParams{
		Store:      dual,
		Finder:     gormStore,
		Cursor:     cursor,
		Directory:  directory,
		Presence:   presenceSource,
		Dispatcher: dispatcher,
		Metrics:    metrics.NewDispatchMetrics(prometheus.DefaultRegisterer),
		Logger:     logg,
	})
	requireResource(ctx, logg, "assignment engine", err)

	orderConsumer, err := assignment.NewOrderConsumer(dual, engine, ordersSub, manager, logg)
	requireResource(ctx, logg, "order consumer", err)
	presenceConsumer, err := assignment.NewPresenceConsumer(engine, presenceSub, manager, logg, cfg.Dispatch.SweepLimit)
	requireResource(ctx, logg, "presence consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "dispatch worker ready")

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error { return orderConsumer.Run(groupCtx) })
	group.Go(func() error { return presenceConsumer.Run(groupCtx) })

	err = group.Wait()
	engine.WaitNotifications()
	if err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "dispatch worker failed", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "dispatch worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
