package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-gate/internal/api/http"
	"github.com/spec-kit/ticket-gate/internal/api/http/handlers"
	"github.com/spec-kit/ticket-gate/internal/api/http/view"
	"github.com/spec-kit/ticket-gate/internal/auth"
	"github.com/spec-kit/ticket-gate/internal/config"
	"github.com/spec-kit/ticket-gate/internal/events"
	"github.com/spec-kit/ticket-gate/internal/observability"
	"github.com/spec-kit/ticket-gate/internal/persistence"
	"github.com/spec-kit/ticket-gate/internal/repository"
	"github.com/spec-kit/ticket-gate/internal/service"
	"github.com/spec-kit/ticket-gate/internal/session"
	"github.com/spec-kit/ticket-gate/internal/worker"
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

	metrics := observability.NewMetrics()
	dependencies := map[string]handlers.Pinger{}

	var store repository.TicketStore = repository.NewFileTicketStore(cfg.Store.TicketsFile)
	if cfg.Store.Driver == config.StoreDriverPostgres {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if pool := pg.PoolHandle(); pool != nil {
			if cfg.Postgres.RunMigrations {
				if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
					logger.Fatal("failed to run migrations", zap.Error(err))
				}
			}
			store = repository.NewPostgresTicketStore(pool)
			dependencies["postgres"] = pg
		} else {
			logger.Warn("postgres store selected without DSN; using ticket file",
				zap.String("path", cfg.Store.TicketsFile))
		}
	}
	ledger := repository.NewTicketLedger(store, logger)

	var sessions session.Store = session.NewMemoryStore(cfg.Session.TTL())
	if cfg.Session.Backend == config.SessionBackendRedis {
		rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb.Client, cfg.Session.TTL())
		dependencies["redis"] = rdb
	}

	dispatcher := events.NewInMemoryDispatcher(logger)

	var (
		forwarder service.EventForwarder
		forward   *worker.ForwardWorker
	)
	if cfg.Notification.AMQPURL != "" {
		publisher := events.NewAMQPPublisher(cfg.Notification.AMQPURL, cfg.Notification.AMQPQueue)
		defer publisher.Close()
		forward = worker.NewForwardWorker(publisher, logger, 256)
		forwarder = forward
	}
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification, forwarder)
	worker.StartNotificationWorker(ctx, notificationService, forward)

	ticketService := service.NewTicketService(service.TicketDependencies{
		Ledger:     ledger,
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	tokens := auth.NewTokenManager(cfg.Auth.VisitorSecret, cfg.Auth.VisitorTokenTTLHours)
	visitor := auth.NewVisitorMiddleware(tokens, cfg.Session.CookieName, cfg.App.Env == "production", logger)
	renderer := view.JSONRenderer{}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies, metrics),
		Tickets:   handlers.NewTicketsHandler(ticketService, renderer, cfg.App.Name),
		Challenge: handlers.NewChallengeHandler(ticketService, renderer),
		Queue:     handlers.NewQueueHandler(ticketService, renderer),
		Visitor:   visitor,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()
	if forward != nil {
		<-forward.Done()
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
