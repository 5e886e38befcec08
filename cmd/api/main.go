package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/tax-backoffice/internal/api/http"
	"github.com/spec-kit/tax-backoffice/internal/api/http/handlers"
	"github.com/spec-kit/tax-backoffice/internal/auth"
	"github.com/spec-kit/tax-backoffice/internal/config"
	"github.com/spec-kit/tax-backoffice/internal/events"
	"github.com/spec-kit/tax-backoffice/internal/mail"
	"github.com/spec-kit/tax-backoffice/internal/observability"
	"github.com/spec-kit/tax-backoffice/internal/persistence"
	"github.com/spec-kit/tax-backoffice/internal/repository"
	"github.com/spec-kit/tax-backoffice/internal/service"
	"github.com/spec-kit/tax-backoffice/internal/worker"
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
	customerRepo := repository.NewCustomerRepository(pool)
	employeeRepo := repository.NewEmployeeRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	queryRepo := repository.NewQueryRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	gateway := mail.NewZeptoGateway(cfg.Mail, logger, metrics)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		CustomerRepo:      customerRepo,
		EmployeeRepo:      employeeRepo,
		PasswordResetRepo: resetRepo,
		Gateway:           gateway,
		Dispatcher:        dispatcher,
	})
	reviewService := service.NewReviewService(service.ReviewDependencies{
		CustomerRepo: customerRepo,
		EmployeeRepo: employeeRepo,
		Dispatcher:   dispatcher,
	})
	customerService := service.NewCustomerService(service.CustomerDependencies{
		CustomerRepo: customerRepo,
		QueryRepo:    queryRepo,
		Cache:        redis,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	employeeService := service.NewEmployeeService(service.EmployeeDependencies{
		EmployeeRepo: employeeRepo,
		CustomerRepo: customerRepo,
		QueryRepo:    queryRepo,
		Cache:        redis,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	notificationService := service.NewNotificationService(dispatcher, gateway, logger)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), customerRepo, employeeRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Customers:      handlers.NewCustomersHandler(authService, customerService, cfg.Uploads),
		Employees:      handlers.NewEmployeesHandler(authService, employeeService),
		Reviews:        handlers.NewReviewsHandler(reviewService),
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
