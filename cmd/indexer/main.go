package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"customer-registry/internal/config"
	"customer-registry/internal/domain/customer"
	"customer-registry/internal/event"
	"customer-registry/internal/event/indexer"
	"customer-registry/internal/infrastructure/logging"
	"customer-registry/internal/infrastructure/rabbitmq"
	"customer-registry/internal/infrastructure/retry"
	"customer-registry/internal/infrastructure/search/elastic"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
)

// The indexer applies customer.created and customer.updated events to the search index
// when the API runs with sync.mode=queue.
func main() {
	cfg, logger := initializeConfigAndLogger()
	ctx, cancel := setupSignalHandling()
	defer cancel()

	synchronizer := setupSearchIndex(ctx, cfg, logger)

	rabbitConn := setupRabbitMQ(ctx, cfg, logger)
	defer rabbitmq.Close(rabbitConn, logger)

	eventHandler := indexer.NewCustomerEventHandler(synchronizer, logger)

	server := startMetricsServer(cfg, logger, cancel)

	consumer := setupConsumer(rabbitConn, cfg, eventHandler, logger)
	go startConsumer(ctx, consumer, logger)

	waitForShutdownSignal(ctx, consumer, logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	logger.Info("Shutting down metrics server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down metrics server", slog.Any("error", err))
	}
	logger.Info("Indexer shut down gracefully.")
}

func initializeConfigAndLogger() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Configuration loaded successfully")
	if cfg.Sync.Mode != config.SyncModeQueue {
		logger.Warn("sync.mode is not queue; the API already indexes inline and publishes no save events for this process", "mode", cfg.Sync.Mode)
	}
	return cfg, logger
}

func setupSignalHandling() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()
	return ctx, cancel
}

func setupSearchIndex(ctx context.Context, cfg *config.Config, logger *slog.Logger) *customer.IndexSynchronizer {
	client, err := elastic.NewClient(ctx, cfg.Elasticsearch, logger)
	if err != nil {
		logger.Error("Failed to connect to Elasticsearch", slog.Any("error", err))
		os.Exit(1)
	}
	index := elastic.NewCustomerIndex(client, cfg.Elasticsearch.Index, logger)
	if err := index.EnsureIndex(ctx); err != nil {
		logger.Error("Failed to ensure search index", slog.Any("error", err))
		os.Exit(1)
	}
	return customer.NewIndexSynchronizer(index, logger)
}

func setupRabbitMQ(ctx context.Context, cfg *config.Config, logger *slog.Logger) *amqp.Connection {
	rabbitConn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ, retry.DefaultPolicy, logger)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", slog.Any("error", err))
		os.Exit(1)
	}
	return rabbitConn
}

func startMetricsServer(cfg *config.Config, logger *slog.Logger, cancel context.CancelFunc) *http.Server {
	path := cfg.Metrics.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Metrics.Port), Handler: mux}
	logger.Info("Setting up Prometheus metrics endpoint", "path", path, "port", cfg.Metrics.Port)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to start metrics server", slog.Any("error", err))
			cancel()
		}
	}()
	return server
}

func setupConsumer(rabbitConn *amqp.Connection, cfg *config.Config, eventHandler *indexer.CustomerEventHandler, logger *slog.Logger) *event.Consumer {
	consumer, err := event.NewConsumer(
		rabbitConn,
		cfg.RabbitMQ.ExchangeName,
		cfg.RabbitMQ.QueueName,
		cfg.RabbitMQ.ConsumerTag,
		indexer.RoutingKeys,
		eventHandler.HandleDelivery,
		logger,
	)
	if err != nil {
		logger.Error("Failed to create RabbitMQ consumer", slog.Any("error", err))
		os.Exit(1)
	}
	return consumer
}

func startConsumer(ctx context.Context, consumer *event.Consumer, logger *slog.Logger) {
	if err := consumer.Start(ctx); err != nil {
		logger.Error("Failed to start RabbitMQ consumer", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Consumer started successfully. Waiting for events or shutdown signal...")
}

func waitForShutdownSignal(ctx context.Context, consumer *event.Consumer, logger *slog.Logger) {
	<-ctx.Done()
	logger.Info("Shutdown signal received. Initiating graceful shutdown...")
	consumer.Stop()
}
