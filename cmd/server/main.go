package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tazhibayda/events-service/internal/config"
	api "github.com/tazhibayda/events-service/internal/http"
	"github.com/tazhibayda/events-service/internal/log"
	"github.com/tazhibayda/events-service/internal/metrics"
	"github.com/tazhibayda/events-service/internal/queue"
	"github.com/tazhibayda/events-service/internal/repo"
	"github.com/tazhibayda/events-service/internal/revalidate"
)

func main() {
	cfg := config.Load()

	logger, err := log.Init(cfg.Prod)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	metrics.MustRegister()

	mongo := repo.NewManager(cfg.MongoURI, nil)

	// dial eagerly so a bad MONGO_URI fails at startup, not on the
	// first request; handlers still go through the manager afterwards
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := mongo.Connect(ctx)
	cancel()
	if err != nil {
		logger.Fatal("mongo connect", zap.Error(err))
	}
	defer store.Close(context.Background())

	if err := store.EnsureIndexes(context.Background()); err != nil {
		logger.Fatal("ensure indexes", zap.Error(err))
	}

	var pages revalidate.Invalidator = revalidate.Noop{}
	rds := revalidate.NewRedis(cfg.RedisAddr)
	if err := rds.Ping(context.Background()); err != nil {
		logger.Warn("redis unavailable, page invalidation disabled", zap.Error(err))
	} else {
		pages = rds
		defer rds.Close()
	}

	pub, err := queue.NewRabbit(cfg.RabbitURL, queue.Exchange)
	if err != nil {
		logger.Warn("rabbit unavailable, domain events disabled", zap.Error(err))
		pub = queue.NewNoop()
	}
	defer pub.Close()

	h := api.NewHandler(mongo, pages, pub)
	r := api.NewRouter(h, api.RouterOptions{
		JWTSecret:       cfg.JWTSecret,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	srvErr := make(chan error, 1)
	go func() { srvErr <- r.Run(":" + cfg.Port) }()

	logger.Info("events-service listening", zap.String("port", cfg.Port))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	case err := <-srvErr:
		logger.Error("server error", zap.Error(err))
	}
}
