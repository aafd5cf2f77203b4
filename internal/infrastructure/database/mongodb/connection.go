package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"customer-registry/internal/config"
	"customer-registry/internal/infrastructure/retry"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func NewClient(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*mongo.Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is empty in configuration")
	}

	clientOptions := options.Client().
		ApplyURI(cfg.URL).
		SetMaxPoolSize(10).
		SetMaxConnIdleTime(5 * time.Minute)

	logger.Info("Connecting to MongoDB...")
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to create mongo client: %w", err)
	}

	err = retry.Do(ctx, "mongo ping", retry.DefaultPolicy, logger, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return client.Ping(pingCtx, readpref.Primary())
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo on connect: %w", err)
	}

	logger.Info("Successfully connected to MongoDB.", "db", cfg.MongoDB)
	return client, nil
}
