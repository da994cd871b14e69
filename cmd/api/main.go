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

	httptransport "github.com/spec-kit/backoffice-service/internal/api/http"
	"github.com/spec-kit/backoffice-service/internal/api/http/handlers"
	"github.com/spec-kit/backoffice-service/internal/auth"
	"github.com/spec-kit/backoffice-service/internal/config"
	"github.com/spec-kit/backoffice-service/internal/events"
	"github.com/spec-kit/backoffice-service/internal/observability"
	"github.com/spec-kit/backoffice-service/internal/persistence"
	"github.com/spec-kit/backoffice-service/internal/policy"
	"github.com/spec-kit/backoffice-service/internal/repository"
	"github.com/spec-kit/backoffice-service/internal/service"
	"github.com/spec-kit/backoffice-service/internal/worker"
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

	db := repository.NewDB(pg.PoolHandle())
	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	noteRepo := repository.NewTicketNoteRepository(db)
	planRepo := repository.NewPaymentPlanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)

	policies := policy.NewEngine(clientRepo)
	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   userRepo,
		ClientRepo: clientRepo,
		ResetRepo:  resetRepo,
		Tx:         db,
		Tokens:     tokens,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
		ResetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
	})
	clientService := service.NewClientService(service.ClientDependencies{
		ClientRepo:       clientRepo,
		UserRepo:         userRepo,
		SubscriptionRepo: subscriptionRepo,
		TicketRepo:       ticketRepo,
		NoteRepo:         noteRepo,
		PaymentRepo:      paymentRepo,
		Tx:               db,
		Policies:         policies,
		Dispatcher:       dispatcher,
		BcryptCost:       cfg.Auth.BcryptCost,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		NoteRepo:   noteRepo,
		Policies:   policies,
		Dispatcher: dispatcher,
	})
	ledgerService := service.NewLedgerService(service.LedgerDependencies{
		PaymentRepo: paymentRepo,
		PlanRepo:    planRepo,
		ClientRepo:  clientRepo,
		Tx:          db,
		Policies:    policies,
		Dispatcher:  dispatcher,
	})
	planService := service.NewPaymentPlanService(service.PlanDependencies{
		PlanRepo:    planRepo,
		PaymentRepo: paymentRepo,
		ClientRepo:  clientRepo,
		UserRepo:    userRepo,
		Policies:    policies,
	})
	subscriptionService := service.NewSubscriptionService(service.SubscriptionDependencies{
		SubscriptionRepo: subscriptionRepo,
		ClientRepo:       clientRepo,
		UserRepo:         userRepo,
		Policies:         policies,
	})
	financeService := service.NewFinanceService(service.FinanceDependencies{
		ExpenseRepo: expenseRepo,
		AccountRepo: accountRepo,
		Policies:    policies,
	})
	statsService := service.NewStatsService(service.StatsDependencies{
		StatsRepo: statsRepo,
		Policies:  policies,
		Cache:     redis.Client,
		CacheTTL:  cfg.App.StatsCacheTTL(),
		Logger:    logger,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewMiddleware(tokens, userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Clients:        handlers.NewClientsHandler(clientService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Payments:       handlers.NewPaymentsHandler(ledgerService),
		PaymentPlans:   handlers.NewPaymentPlansHandler(planService, ledgerService),
		Subscriptions:  handlers.NewSubscriptionsHandler(subscriptionService),
		Finance:        handlers.NewFinanceHandler(financeService),
		Stats:          handlers.NewStatsHandler(statsService),
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
