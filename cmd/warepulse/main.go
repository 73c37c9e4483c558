package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/warepulse/warepulse/internal/alerts"
	"github.com/warepulse/warepulse/internal/app"
	"github.com/warepulse/warepulse/internal/auth"
	"github.com/warepulse/warepulse/internal/kpi"
	kpihttp "github.com/warepulse/warepulse/internal/kpi/http"
	"github.com/warepulse/warepulse/internal/masterdata"
	"github.com/warepulse/warepulse/internal/observability"
	"github.com/warepulse/warepulse/internal/platform/cache"
	"github.com/warepulse/warepulse/internal/platform/db"
	"github.com/warepulse/warepulse/internal/users"
	"github.com/warepulse/warepulse/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	// A missing Redis only disables caching, not the service.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, cfg.JWTSecret, cfg.JWTTTL)
	authHandler := auth.NewHandler(logger, authService)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService)

	masterdataRepo := masterdata.NewRepository(dbpool)
	masterdataHandler := masterdata.NewHandler(logger, masterdataRepo)

	alertsRepo := alerts.NewRepository(dbpool)
	alertsService := alerts.NewService(logger, alertsRepo, jobClient)
	alertsHandler := alerts.NewHandler(logger, alertsService)

	kpiRepo := kpi.NewRepository(dbpool)
	kpiCache := kpi.NewCache(redisClient, cfg.KPICacheTTL)
	kpiService := kpi.NewService(logger, kpiRepo, kpiCache, alertsService)
	kpiHandler := kpihttp.NewHandler(logger, kpiService)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Verifier:          authService,
		AuthHandler:       authHandler,
		UsersHandler:      usersHandler,
		MasterDataHandler: masterdataHandler,
		KPIHandler:        kpiHandler,
		AlertsHandler:     alertsHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
