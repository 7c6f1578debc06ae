package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/corray333/backend-labs/bookstore/internal/dal/postgres"
	"github.com/corray333/backend-labs/bookstore/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/bookstore/internal/dal/redis"
	notificationrepo "github.com/corray333/backend-labs/bookstore/internal/dal/repositories/notification/rabbitmq"
	redisrepo "github.com/corray333/backend-labs/bookstore/internal/dal/repositories/ordercache/redis"
	outboxrepo "github.com/corray333/backend-labs/bookstore/internal/dal/repositories/outbox/postgres"
	"github.com/corray333/backend-labs/bookstore/internal/otel"
	"github.com/corray333/backend-labs/bookstore/internal/service/services/ordersvc"
	httptransport "github.com/corray333/backend-labs/bookstore/internal/transport/http"
	"github.com/corray333/backend-labs/bookstore/internal/worker/outbox"
)

const defaultCacheTTL = 5 * time.Minute

// App represents the application.
type App struct {
	orderSvc       *ordersvc.OrderService
	transport      *httptransport.HTTPTransport
	outboxWorker   *outbox.Worker
	postgresClient *postgres.Client
	redisClient    *redis.Client
	rabbitClient   *rabbitmq.Client
	otel           *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	postgresClient := postgres.MustNewClient()
	redisClient := redis.MustNewClient()
	rabbitClient := rabbitmq.MustNewClient()

	outboxRepo := outboxrepo.NewOutboxRepository(postgresClient.Pool())
	notifier := notificationrepo.NewNotificationRabbitMQRepository(rabbitClient, outboxRepo)

	cacheTTL := time.Duration(viper.GetInt("redis.order_cache_ttl_seconds")) * time.Second
	if cacheTTL == 0 {
		cacheTTL = defaultCacheTTL
	}
	orderCache := redisrepo.NewOrderCache(redisClient.Redis(), cacheTTL)

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
		ordersvc.WithNotificationRepository(notifier),
		ordersvc.WithOrderCache(orderCache),
		ordersvc.WithStaffRecipients(viper.GetStringSlice("notification.staff_recipients")),
		ordersvc.WithCodeMaxAttempts(viper.GetInt("orders.code_max_attempts")),
		ordersvc.WithRestockOnCancel(viper.GetBool("orders.restock_on_cancel")),
	)

	transport := httptransport.NewHTTPTransport(orderSvc)
	transport.RegisterRoutes()

	return &App{
		orderSvc:       orderSvc,
		transport:      transport,
		outboxWorker:   outbox.NewWorker(outboxRepo, rabbitClient),
		postgresClient: postgresClient,
		redisClient:    redisClient,
		rabbitClient:   rabbitClient,
		otel:           otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		a.outboxWorker.Start(workerCtx)
	}()

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	a.outboxWorker.Stop()
	cancelWorker()
	<-workerDone

	if err := a.rabbitClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	if err := a.redisClient.Close(); err != nil {
		slog.Error("Redis connection close error", "error", err)
	} else {
		slog.Info("Redis connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otel.Shutdown(ctx); err != nil {
		slog.Error("Tracer provider shutdown error", "error", err)
	}

	slog.Info("Application shutdown complete")
}
