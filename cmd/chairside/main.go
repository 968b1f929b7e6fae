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

	"github.com/chairside/chairside/internal/app"
	"github.com/chairside/chairside/internal/appointments"
	"github.com/chairside/chairside/internal/auth"
	"github.com/chairside/chairside/internal/catalog"
	"github.com/chairside/chairside/internal/identity"
	"github.com/chairside/chairside/internal/platform/cache"
	"github.com/chairside/chairside/internal/platform/db"
	"github.com/chairside/chairside/internal/salons"
	"github.com/chairside/chairside/internal/secure"
	"github.com/chairside/chairside/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := secure.NewAuditLogger(pool, logger)
	limiter := secure.NewLimiter(redisClient, auditLogger)

	identityStore := identity.NewStore(pool)
	profileStore := identity.NewProfiles(pool)
	resolver := secure.NewResolver(identityStore, profileStore, auditLogger, logger)
	evaluator := secure.NewEvaluator(secure.NewPgOwnershipSource(pool), auditLogger, logger)

	deps := &secure.Deps{
		Resolver: resolver,
		Authz:    evaluator,
		DB:       pool,
		Cache:    secure.NewCache(redisClient),
		Logger:   logger,
	}

	authService := auth.NewService(identityStore, limiter, auditLogger, cfg.TokenTTL, cfg.LoginRateLimit, cfg.LoginRateWindow)
	authHandler := auth.NewHandler(logger, authService)

	appointmentsService := appointments.NewService(deps, appointments.NewStore())
	appointmentsHandler := appointments.NewHandler(logger, appointmentsService)

	salonsService := salons.NewService(deps, salons.NewStore())
	salonsHandler := salons.NewHandler(logger, salonsService)

	catalogService := catalog.NewService(deps, catalog.NewStore())
	catalogHandler := catalog.NewHandler(logger, catalogService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		AuthHandler:         authHandler,
		AppointmentsHandler: appointmentsHandler,
		SalonsHandler:       salonsHandler,
		CatalogHandler:      catalogHandler,
		JobsHandler:         jobsHandler,
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
