package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"customer-registry/internal/config"
	"customer-registry/internal/infrastructure/retry"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Connect dials the broker with backoff and logs when the connection is blocked or closed.
func Connect(ctx context.Context, cfg config.RabbitMQConfig, policy retry.Policy, logger *slog.Logger) (*amqp.Connection, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("RabbitMQ host is not configured")
	}
	if (cfg.Username == "") != (cfg.Password == "") {
		return nil, fmt.Errorf("RabbitMQ username and password must be provided together")
	}

	logger = logger.With("component", "RabbitMQ")
	var conn *amqp.Connection
	err := retry.Do(ctx, "rabbitmq dial", policy, logger, func(ctx context.Context) error {
		c, err := amqp.Dial(cfg.URL())
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	logger.Info("Successfully connected to RabbitMQ", "host", cfg.Host, "port", cfg.Port)
	go watch(conn, logger)
	return conn, nil
}

func watch(conn *amqp.Connection, logger *slog.Logger) {
	blockChan := conn.NotifyBlocked(make(chan amqp.Blocking, 1))
	closeChan := conn.NotifyClose(make(chan *amqp.Error, 1))

	for {
		select {
		case b, ok := <-blockChan:
			if !ok {
				return
			}
			if b.Active {
				logger.Warn("RabbitMQ Connection Blocked", "reason", b.Reason)
			} else {
				logger.Info("RabbitMQ Connection Unblocked")
			}
		case e, ok := <-closeChan:
			if ok && e != nil {
				logger.Error("RabbitMQ Connection Closed", slog.Any("error", e))
			}
			return
		}
	}
}

func Close(conn *amqp.Connection, logger *slog.Logger) {
	if conn != nil && !conn.IsClosed() {
		logger.Info("Closing RabbitMQ connection...")
		if err := conn.Close(); err != nil {
			logger.Error("Failed to close RabbitMQ connection gracefully", slog.Any("error", err))
		} else {
			logger.Info("RabbitMQ connection closed.")
		}
	} else if conn == nil {
		logger.Info("RabbitMQ connection was not established, skipping close.")
	} else {
		logger.Info("RabbitMQ connection already closed, skipping close.")
	}
}
