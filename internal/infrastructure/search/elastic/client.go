package elastic

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"customer-registry/internal/config"
	"customer-registry/internal/infrastructure/retry"

	"github.com/elastic/go-elasticsearch/v8"
)

func NewClient(ctx context.Context, cfg config.ElasticsearchConfig, logger *slog.Logger) (*elasticsearch.Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch addresses are empty in configuration")
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create elasticsearch client: %w", err)
	}

	err = retry.Do(ctx, "elasticsearch ping", retry.DefaultPolicy, logger, func(ctx context.Context) error {
		res, err := client.Ping(client.Ping.WithContext(ctx))
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
			return retry.Permanent(fmt.Errorf("elasticsearch rejected credentials: %s", res.Status()))
		}
		if res.IsError() {
			return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Successfully connected to Elasticsearch.", "addresses", cfg.Addresses)
	return client, nil
}
