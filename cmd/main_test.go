package main

import (
	"context"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"customer-registry/internal/config"
	"customer-registry/internal/infrastructure/logging"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopJob struct{}

func (noopJob) Run(context.Context) error { return nil }

func TestInitializeApp(t *testing.T) {
	cfg, log := initializeApp()

	require.NotNil(t, cfg, "Config should not be nil")
	assert.NotNil(t, log, "Logger should not be nil")
	assert.Equal(t, config.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, config.SyncModeInline, cfg.Sync.Mode)
}

func TestStartServerAndShutdown(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:         0,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  5 * time.Second,
		},
	}
	logger := logging.NewLogger(config.LoggerConfig{})

	srv, serverErrors, shutdownChan := startServer(cfg, http.NewServeMux(), logger)
	require.NotNil(t, srv, "Server should not be nil")
	require.NotNil(t, serverErrors, "Server errors channel should not be nil")
	require.NotNil(t, shutdownChan, "Shutdown channel should not be nil")

	signals := make(chan os.Signal, 1)
	signals <- syscall.SIGTERM

	done := make(chan struct{})
	go func() {
		handleShutdown(srv, cron.New(), nil, nil, signals, serverErrors, logger)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("shutdown did not complete")
	}
}

func TestWaitForShutdownTrigger(t *testing.T) {
	logger := logging.NewLogger(config.LoggerConfig{})

	signals := make(chan os.Signal, 1)
	signals <- syscall.SIGINT
	assert.Equal(t, "signal: interrupt", waitForShutdownTrigger(signals, make(chan error), logger))

	serverErrors := make(chan error, 1)
	serverErrors <- nil
	assert.Equal(t, "server exited", waitForShutdownTrigger(make(chan os.Signal), serverErrors, logger))
}

func TestInitializeRedisClient_NotConfigured(t *testing.T) {
	logger := logging.NewLogger(config.LoggerConfig{})
	assert.Nil(t, initializeRedisClient(&config.Config{}, logger))
	assert.NotPanics(t, func() { closeRedisClient(nil, logger) })
}

func TestStartBatchJobs(t *testing.T) {
	logger := logging.NewLogger(config.LoggerConfig{})

	c := startBatchJobs(&config.Config{Batch: config.BatchConfig{ReindexSchedule: "*/5 * * * *"}}, noopJob{}, logger)
	require.NotNil(t, c)
	assert.Len(t, c.Entries(), 1)
	stopCronScheduler(c, logger)

	assert.Nil(t, startBatchJobs(&config.Config{Batch: config.BatchConfig{ReindexSchedule: "not a schedule"}}, noopJob{}, logger))
	assert.NotPanics(t, func() { stopCronScheduler(nil, logger) })
}
