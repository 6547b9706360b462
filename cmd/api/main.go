package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/mindovermyth/sessionhub/api/controllers"
	"github.com/mindovermyth/sessionhub/api/routes"
	"github.com/mindovermyth/sessionhub/internal/cart"
	checkoutsvc "github.com/mindovermyth/sessionhub/internal/checkout"
	"github.com/mindovermyth/sessionhub/internal/playback"
	"github.com/mindovermyth/sessionhub/internal/realtime"
	"github.com/mindovermyth/sessionhub/internal/theme"
	"github.com/mindovermyth/sessionhub/internal/usage"
	"github.com/mindovermyth/sessionhub/pkg/config"
	"github.com/mindovermyth/sessionhub/pkg/db"
	"github.com/mindovermyth/sessionhub/pkg/kv"
	"github.com/mindovermyth/sessionhub/pkg/kv/dbstore"
	"github.com/mindovermyth/sessionhub/pkg/logger"
	"github.com/mindovermyth/sessionhub/pkg/metrics"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	registry := prometheus.NewRegistry()
	stateMetrics := metrics.NewStateMetrics(registry)

	mirror, bus, health, closeStores, err := buildStores(ctx, cfg, logg)
	requireResource(ctx, logg, "session stores", err)
	defer func() {
		if err := closeStores(); err != nil {
			logg.Error(ctx, "error closing session stores", err)
		}
	}()

	publisher, err := realtime.NewPublisher(bus, logg, stateMetrics)
	requireResource(ctx, logg, "event publisher", err)

	hub, err := realtime.NewHub(bus, cfg.Realtime.SubscriberBuffer, logg, stateMetrics)
	requireResource(ctx, logg, "event hub", err)

	recorder, err := usage.NewHTTPRecorder(cfg.Backend, logg, stateMetrics)
	requireResource(ctx, logg, "usage recorder", err)

	cartService, err := cart.NewService(mirror, publisher, logg, stateMetrics)
	requireResource(ctx, logg, "cart service", err)

	themeService, err := theme.NewService(mirror, publisher, logg, stateMetrics)
	requireResource(ctx, logg, "theme service", err)

	playbackService, err := playback.NewService(mirror, recorder, publisher, logg, stateMetrics)
	requireResource(ctx, logg, "playback service", err)

	checkoutService, err := checkoutsvc.NewService(cartService, cfg.Backend.BaseURL, cfg.Backend.CheckoutTimeout, logg)
	requireResource(ctx, logg, "checkout service", err)

	router := routes.NewRouter(routes.Deps{
		Config:          cfg,
		Logger:          logg,
		CartService:     cartService,
		ThemeService:    themeService,
		PlaybackService: playbackService,
		CheckoutService: checkoutService,
		Hub:             hub,
		Health:          health,
		Registry:        registry,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	runCtx := logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"addr":   addr,
		"mirror": cfg.Mirror.Normalized(),
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(runCtx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(runCtx, "error draining api server", err)
		}
	}
}

// buildStores wires the configured mirror driver plus the event bus. The
// database driver has no pub/sub of its own, so it pairs with Redis when one
// is configured and otherwise with the in-process broker.
func buildStores(ctx context.Context, cfg *config.Config, logg *logger.Logger) (kv.Mirror, kv.Bus, map[string]controllers.Pinger, func() error, error) {
	health := map[string]controllers.Pinger{}

	switch cfg.Mirror.Normalized() {
	case config.MirrorDriverRedis:
		redisStore, err := kv.NewRedis(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		health["redis"] = redisStore
		return redisStore, redisStore, health, redisStore.Close, nil

	case config.MirrorDriverDatabase:
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		store, err := dbstore.New(dbClient)
		if err != nil {
			return nil, nil, nil, nil, multierr.Append(err, dbClient.Close())
		}
		health["database"] = dbClient

		if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
			redisBus, err := kv.NewRedis(ctx, cfg.Redis, logg)
			if err != nil {
				return nil, nil, nil, nil, multierr.Append(err, dbClient.Close())
			}
			health["redis"] = redisBus
			closeAll := func() error {
				return multierr.Combine(redisBus.Close(), dbClient.Close())
			}
			return store, redisBus, health, closeAll, nil
		}

		memoryBus := kv.NewMemory()
		closeAll := func() error {
			return multierr.Combine(memoryBus.Close(), dbClient.Close())
		}
		return store, memoryBus, health, closeAll, nil

	default:
		memory := kv.NewMemory()
		health["memory"] = memory
		return memory, memory, health, memory.Close, nil
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
