package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/exeat-service/internal/api/http"
	"github.com/spec-kit/exeat-service/internal/api/http/handlers"
	"github.com/spec-kit/exeat-service/internal/auth"
	"github.com/spec-kit/exeat-service/internal/config"
	"github.com/spec-kit/exeat-service/internal/events"
	"github.com/spec-kit/exeat-service/internal/observability"
	"github.com/spec-kit/exeat-service/internal/persistence"
	"github.com/spec-kit/exeat-service/internal/repository"
	"github.com/spec-kit/exeat-service/internal/service"
	"github.com/spec-kit/exeat-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	houseRepo := repository.NewHouseRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	noteRepo := repository.NewNoteRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	auditService := service.NewAuditService(auditRepo, logger)
	settingsService := service.NewSettingsService(settingRepo, redis, cfg.Redis.SettingsTTL(), auditService, logger)
	authService := service.NewAuthService(cfg.Auth, userRepo, auditService)
	twoFactorService := service.NewTwoFactorService(userRepo, auditService, cfg.TwoFactor)
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo: requestRepo,
		NoteRepo:    noteRepo,
		Settings:    settingsService,
		Audit:       auditService,
		Dispatcher:  dispatcher,
	})
	directoryService := service.NewDirectoryService(userRepo, houseRepo, auditService, cfg.Auth.BcryptCost)
	analyticsService := service.NewAnalyticsService(analyticsRepo, requestService)
	reportService := service.NewReportService(requestService)
	passService := service.NewPassService(requestService)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notify)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, twoFactorService),
		Houses:         handlers.NewHousesHandler(directoryService),
		Requests:       handlers.NewRequestsHandler(requestService, reportService, passService),
		Students:       handlers.NewStudentsHandler(directoryService),
		Admin:          handlers.NewAdminHandler(auditService, settingsService, directoryService, analyticsService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
