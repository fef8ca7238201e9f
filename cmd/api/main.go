package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/entrydesk-backend/api/routes"
	"github.com/angelmondragon/entrydesk-backend/internal/auth"
	"github.com/angelmondragon/entrydesk-backend/internal/entries"
	"github.com/angelmondragon/entrydesk-backend/internal/notifications"
	"github.com/angelmondragon/entrydesk-backend/internal/users"
	"github.com/angelmondragon/entrydesk-backend/pkg/auth/session"
	"github.com/angelmondragon/entrydesk-backend/pkg/config"
	"github.com/angelmondragon/entrydesk-backend/pkg/db"
	"github.com/angelmondragon/entrydesk-backend/pkg/instance"
	"github.com/angelmondragon/entrydesk-backend/pkg/logger"
	"github.com/angelmondragon/entrydesk-backend/pkg/metrics"
	"github.com/angelmondragon/entrydesk-backend/pkg/migrate"
	"github.com/angelmondragon/entrydesk-backend/pkg/outbox"
	"github.com/angelmondragon/entrydesk-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.DefaultRegisterParams(dbClient, cfg.Password))
	if err != nil {
		logg.Error(ctx, "failed to create register service", err)
		os.Exit(1)
	}

	var adminRegisterService auth.RegisterService
	if !cfg.App.IsProd() || cfg.FeatureFlags.AdminSignup {
		adminRegisterService, err = auth.NewAdminRegisterService(auth.DefaultRegisterParams(dbClient, cfg.Password))
		if err != nil {
			logg.Error(ctx, "failed to create admin register service", err)
			os.Exit(1)
		}
	}

	profileService, err := auth.NewProfileService(usersRepo, cfg.Password)
	if err != nil {
		logg.Error(ctx, "failed to create profile service", err)
		os.Exit(1)
	}

	registry := metrics.NewRegistry()

	entriesService, err := entries.NewService(entries.ServiceParams{
		Repo:     entries.NewRepository(dbClient.DB()),
		TxRunner: dbClient,
		Outbox:   outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Metrics:  metrics.NewEntryMetrics(registry),
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create entries service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create notifications service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			routes.NewStores(redisClient),
			routes.Services{
				Auth:          authService,
				Register:      registerService,
				AdminRegister: adminRegisterService,
				Profile:       profileService,
				Users:         usersRepo,
				Sessions:      sessionManager,
				Entries:       entriesService,
				Notifications: notificationsService,
			},
			metrics.NewHTTPMetrics(registry),
			metrics.Handler(registry),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}
}
