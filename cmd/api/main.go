package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/Ankita19Rathore/QUEUEASE/internal/api/http"
	"github.com/Ankita19Rathore/QUEUEASE/internal/api/http/handlers"
	"github.com/Ankita19Rathore/QUEUEASE/internal/auth"
	"github.com/Ankita19Rathore/QUEUEASE/internal/config"
	"github.com/Ankita19Rathore/QUEUEASE/internal/events"
	"github.com/Ankita19Rathore/QUEUEASE/internal/observability"
	"github.com/Ankita19Rathore/QUEUEASE/internal/persistence"
	"github.com/Ankita19Rathore/QUEUEASE/internal/repository"
	"github.com/Ankita19Rathore/QUEUEASE/internal/service"
	"github.com/Ankita19Rathore/QUEUEASE/internal/worker"
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
	tokenRepo := repository.NewTokenRepository(pool)
	configRepo := repository.NewConfigRepository(pool, repository.ConfigDefaults{
		MaxTokensMorning: cfg.Queue.DefaultMaxTokensMorning,
		MaxTokensEvening: cfg.Queue.DefaultMaxTokensEvening,
	})

	dispatcher := events.NewInMemoryDispatcher()

	allocationService := service.NewAllocationService(service.AllocationDependencies{
		TokenRepo:  tokenRepo,
		ConfigRepo: configRepo,
		Dispatcher: dispatcher,
		Retries:    cfg.Queue.RetryAttempts,
	})
	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		TokenRepo:  tokenRepo,
		ConfigRepo: configRepo,
		Dispatcher: dispatcher,
	})
	statusService := service.NewStatusService(service.StatusDependencies{
		TokenRepo:         tokenRepo,
		ConfigRepo:        configRepo,
		AvgServiceMinutes: cfg.Queue.AvgServiceMinutes,
	})
	queueConfigService := service.NewQueueConfigService(configRepo, dispatcher)
	authService := service.NewAuthService(*cfg, userRepo)

	notificationService := service.NewNotificationService(dispatcher, redis, logger, cfg.Queue.EventChannel)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Tokens:         handlers.NewTokensHandler(allocationService, statusService),
		Doctor:         handlers.NewDoctorHandler(lifecycleService, statusService, queueConfigService),
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
