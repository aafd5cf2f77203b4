package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"customer-registry/internal/api"
	"customer-registry/internal/batch"
	"customer-registry/internal/config"
	"customer-registry/internal/domain/customer"
	"customer-registry/internal/event"
	"customer-registry/internal/infrastructure/database/mongodb"
	"customer-registry/internal/infrastructure/database/postgres"
	"customer-registry/internal/infrastructure/geocoding"
	"customer-registry/internal/infrastructure/logging"
	"customer-registry/internal/infrastructure/rabbitmq"
	"customer-registry/internal/infrastructure/retry"
	"customer-registry/internal/infrastructure/search/elastic"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// primaryStore is the customer repository chosen by database.driver plus its teardown.
type primaryStore struct {
	repo  customer.Repository
	ping  api.HealthChecker
	close func()
}

// @title Customer Registry API
// @version 1.0
// @description Customer registration with geocoded addresses, search-index sync and proximity queries.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()
	ctx := context.Background()

	store := initializeStore(ctx, cfg, logger)
	defer store.close()

	synchronizer := initializeSearchIndex(ctx, cfg, logger)
	geocoder := initializeGeocoder(cfg, logger)

	rabbitMQConn, publisher := setupEvents(ctx, cfg, logger)
	redisClient := initializeRedisClient(cfg, logger)

	customerService := initializeService(cfg, store.repo, geocoder, publisher, synchronizer, logger)

	reindexJob := batch.NewReindexJob(store.repo, synchronizer, cfg.Batch.ReindexPageSize, logger)
	cronScheduler := startBatchJobs(cfg, reindexJob, logger)

	router := api.SetupRouter(customerService, store.ping, redisClient, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, rabbitMQConn, redisClient, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed(), "driver", cfg.Database.Driver, "sync_mode", cfg.Sync.Mode)

	return cfg, logger
}

func initializeStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) primaryStore {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		client, err := mongodb.NewClient(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("Failed to initialize MongoDB client", "error", err)
			os.Exit(1)
		}
		repo := mongodb.NewCustomerRepository(client, cfg.Database.MongoDB, logger)
		if cfg.Database.EnsureSchema {
			if err := repo.EnsureIndexes(ctx); err != nil {
				logger.Error("Failed to ensure MongoDB indexes", "error", err)
				os.Exit(1)
			}
		}
		return primaryStore{
			repo: repo,
			ping: repo,
			close: func() {
				logger.Info("Disconnecting MongoDB client...")
				if err := client.Disconnect(context.Background()); err != nil {
					logger.Error("Failed to disconnect MongoDB client", "error", err)
				}
			},
		}

	case config.DriverPostgres, "":
		logger.Info("Initializing database connection pool...")
		dbPool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("Failed to initialize database connection pool", "error", err)
			os.Exit(1)
		}
		if cfg.Database.EnsureSchema {
			if err := postgres.EnsureSchema(ctx, dbPool, logger); err != nil {
				logger.Error("Failed to ensure database schema", "error", err)
				dbPool.Close()
				os.Exit(1)
			}
		}
		repo := postgres.NewCustomerRepository(dbPool, logger)
		return primaryStore{
			repo: repo,
			ping: repo,
			close: func() {
				logger.Info("Closing database connection pool...")
				dbPool.Close()
			},
		}

	default:
		logger.Error("Unsupported database driver", "driver", cfg.Database.Driver)
		os.Exit(1)
		return primaryStore{}
	}
}

func initializeSearchIndex(ctx context.Context, cfg *config.Config, logger *slog.Logger) *customer.IndexSynchronizer {
	client, err := elastic.NewClient(ctx, cfg.Elasticsearch, logger)
	if err != nil {
		logger.Error("Failed to initialize Elasticsearch client", "error", err)
		os.Exit(1)
	}
	index := elastic.NewCustomerIndex(client, cfg.Elasticsearch.Index, logger)
	if err := index.EnsureIndex(ctx); err != nil {
		logger.Error("Failed to ensure search index", "error", err)
		os.Exit(1)
	}
	return customer.NewIndexSynchronizer(index, logger)
}

func initializeGeocoder(cfg *config.Config, logger *slog.Logger) customer.Geocoder {
	geocoder, err := geocoding.NewGoogleGeocoder(cfg.Geocoding, logger)
	if err != nil {
		logger.Error("Failed to initialize geocoding client", "error", err)
		os.Exit(1)
	}
	return geocoder
}

// setupEvents connects the publisher when events are enabled; queue sync mode requires it.
func setupEvents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*amqp.Connection, event.EventPublisher) {
	queueMode := cfg.Sync.Mode == config.SyncModeQueue
	if !cfg.RabbitMQ.Enabled && !queueMode {
		logger.Info("RabbitMQ disabled, customer events will not be published.")
		return nil, nil
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ, retry.DefaultPolicy, logger)
	if err != nil {
		if queueMode {
			logger.Error("Queue sync mode requires RabbitMQ", "error", err)
			os.Exit(1)
		}
		logger.Warn("Continuing without customer events", "error", err)
		return nil, nil
	}

	publisher, err := event.NewRabbitMQEventPublisher(conn, cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		rabbitmq.Close(conn, logger)
		if queueMode {
			os.Exit(1)
		}
		return nil, nil
	}
	return conn, publisher
}

func initializeService(
	cfg *config.Config,
	repo customer.Repository,
	geocoder customer.Geocoder,
	publisher event.EventPublisher,
	synchronizer *customer.IndexSynchronizer,
	logger *slog.Logger,
) customer.CustomerService {
	logger.Info("Initializing application components...")
	var listeners []customer.SaveListener
	if cfg.Sync.Mode != config.SyncModeQueue {
		listeners = append(listeners, synchronizer)
	}
	return customer.NewCustomerService(repo, geocoder, publisher, logger, listeners...)
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, rabbitConn *amqp.Connection, redisClient *redis.Client,
	shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	triggerReason := waitForShutdownTrigger(shutdownChan, serverErrors, logger)

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	stopCronScheduler(cronScheduler, logger)
	shutdownHTTPServer(srv, serverErrors, logger)
	rabbitmq.Close(rabbitConn, logger)
	closeRedisClient(redisClient, logger)

	logger.Info("Application shutdown process complete.")
}

func waitForShutdownTrigger(shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) string {
	select {
	case sig := <-shutdownChan:
		logger.Info("Shutdown signal received.", "signal", sig.String())
		return "signal: " + sig.String()
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		logger.Info("Server goroutine finished before signal.", "error", err)
		return "server exited"
	}
}

func stopCronScheduler(cronScheduler *cron.Cron, logger *slog.Logger) {
	if cronScheduler == nil {
		return
	}
	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}
}

func shutdownHTTPServer(srv *http.Server, serverErrors <-chan error, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server graceful shutdown failed", "error", err)
		} else {
			logger.Info("HTTP server shutdown initiated.")
		}
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}
}

// initializeRedisClient returns nil when no address is configured; the rate limiter then stays in memory.
func initializeRedisClient(cfg *config.Config, logger *slog.Logger) *redis.Client {
	if cfg.Redis.Addr == "" {
		logger.Info("Redis address not configured, skipping Redis client.")
		return nil
	}

	logger.Info("Initializing central Redis client...")
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if status := rdb.Ping(ctx); status.Err() != nil {
		logger.Warn("Failed to connect to Redis, rate limiter falls back to memory", "error", status.Err(), "addr", cfg.Redis.Addr)
		_ = rdb.Close()
		return nil
	}

	logger.Info("Central Redis client connected successfully.", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
	return rdb
}

func closeRedisClient(redisClient *redis.Client, logger *slog.Logger) {
	if redisClient != nil {
		logger.Info("Closing central Redis client connection...")
		if err := redisClient.Close(); err != nil {
			logger.Error("Failed to close central Redis client connection gracefully", "error", err)
		} else {
			logger.Info("Central Redis client connection closed.")
		}
	} else {
		logger.Info("Redis client was not initialized, skipping close.")
	}
}

func startBatchJobs(cfg *config.Config, job batch.Job, logger *slog.Logger) *cron.Cron {
	c, err := batch.NewScheduler(cfg.Batch, job, logger)
	if err != nil {
		logger.Error("Failed to schedule reindex job, periodic reindex disabled", slog.Any("error", err))
		return nil
	}
	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}
