package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/parking-service/internal/api/http"
	"github.com/spec-kit/parking-service/internal/api/http/handlers"
	"github.com/spec-kit/parking-service/internal/auth"
	"github.com/spec-kit/parking-service/internal/cache"
	"github.com/spec-kit/parking-service/internal/config"
	"github.com/spec-kit/parking-service/internal/events"
	"github.com/spec-kit/parking-service/internal/observability"
	"github.com/spec-kit/parking-service/internal/persistence"
	"github.com/spec-kit/parking-service/internal/repository"
	"github.com/spec-kit/parking-service/internal/service"
	"github.com/spec-kit/parking-service/internal/worker"
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
	slotRepo := repository.NewSlotRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	fineRepo := repository.NewFineRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	slotCatalog := cache.NewSlotCache(redis.Client, 5*time.Minute)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(userRepo, tokenManager, cfg.Auth)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, userRepo)

	bookingService := service.NewBookingService(service.BookingDependencies{
		BookingRepo: bookingRepo,
		SlotRepo:    slotRepo,
		Dispatcher:  dispatcher,
	})
	slotService := service.NewSlotService(service.SlotDependencies{
		SlotRepo:    slotRepo,
		BookingRepo: bookingRepo,
		Catalog:     slotCatalog,
		Logger:      logger,
	})
	paymentService := service.NewPaymentService(service.PaymentDependencies{
		PaymentRepo: paymentRepo,
		BookingRepo: bookingRepo,
		SlotRepo:    slotRepo,
		Dispatcher:  dispatcher,
	})
	fineService := service.NewFineService(service.FineDependencies{
		FineRepo:    fineRepo,
		BookingRepo: bookingRepo,
		SlotRepo:    slotRepo,
		Dispatcher:  dispatcher,
	})
	notificationService := service.NewNotificationService(notificationRepo, dispatcher, logger)
	statsService := service.NewStatsService(statsRepo)

	expiryWorker := worker.NewExpiryWorker(worker.ExpiryWorkerDependencies{
		BookingRepo:      bookingRepo,
		SlotRepo:         slotRepo,
		NotificationRepo: notificationRepo,
		Dispatcher:       dispatcher,
		Config:           cfg.Reconciler,
		Logger:           logger,
		Metrics:          metrics,
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		expiryWorker.Run(ctx)
	}()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Bookings:       handlers.NewBookingsHandler(bookingService),
		Slots:          handlers.NewSlotsHandler(slotService),
		Payments:       handlers.NewPaymentsHandler(paymentService),
		Fines:          handlers.NewFinesHandler(fineService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Stats:          handlers.NewStatsHandler(statsService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	wg.Wait()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
