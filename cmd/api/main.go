package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/roadwatch/damage-service/internal/api/http"
	"github.com/roadwatch/damage-service/internal/api/http/handlers"
	"github.com/roadwatch/damage-service/internal/auth"
	"github.com/roadwatch/damage-service/internal/config"
	"github.com/roadwatch/damage-service/internal/events"
	"github.com/roadwatch/damage-service/internal/media"
	"github.com/roadwatch/damage-service/internal/observability"
	"github.com/roadwatch/damage-service/internal/persistence"
	"github.com/roadwatch/damage-service/internal/repository"
	"github.com/roadwatch/damage-service/internal/service"
	"github.com/roadwatch/damage-service/internal/vision"
	"github.com/roadwatch/damage-service/internal/worker"
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

	mediaStore, err := media.NewStore(cfg.Media)
	if err != nil {
		logger.Fatal("failed to init media store", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	metrics := observability.NewMetrics()

	detector := vision.NewGoCVDetector()
	if !detector.Ready() {
		logger.Warn("damage detector unavailable; analysis endpoints will refuse work")
	}
	quantifier := vision.NewQuantifier(detector)
	annotator := vision.NewAnnotator()

	inspectionService := service.NewInspectionService(cfg.Vision, service.InspectionDependencies{
		Detector:   detector,
		Quantifier: quantifier,
		Annotator:  annotator,
		MediaStore: mediaStore,
		Metrics:    metrics,
		Logger:     logger,
	})

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:    userRepo,
		SessionRepo: sessionRepo,
		Cache:       redis,
		Logger:      logger,
	})
	if err := authService.BootstrapAdmin(ctx, cfg.Auth); err != nil {
		logger.Fatal("failed to bootstrap admin account", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Inspection: inspectionService,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	dashboardService := service.NewDashboardService(ticketRepo, userRepo)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)
	worker.StartSessionSweeper(ctx, authService, time.Hour, logger)

	authMiddleware := auth.NewAuthMiddleware(authService)

	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, inspectionService),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Predict:        handlers.NewPredictHandler(inspectionService, mediaStore),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
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
