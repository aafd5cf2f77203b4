package rabbitmq

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"customer-registry/internal/config"
	"customer-registry/internal/infrastructure/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

var fastPolicy = retry.Policy{
	InitialInterval: 5 * time.Millisecond,
	MaxInterval:     10 * time.Millisecond,
	MaxElapsedTime:  50 * time.Millisecond,
}

func TestConnect_RejectsIncompleteConfig(t *testing.T) {
	_, err := Connect(context.Background(), config.RabbitMQConfig{}, fastPolicy, logger)
	assert.EqualError(t, err, "RabbitMQ host is not configured")

	_, err = Connect(context.Background(), config.RabbitMQConfig{Host: "localhost", Port: 5672, Username: "guest"}, fastPolicy, logger)
	assert.EqualError(t, err, "RabbitMQ username and password must be provided together")
}

func TestConnect_GivesUpWhenBrokerIsDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := config.RabbitMQConfig{Host: "127.0.0.1", Port: port, Username: "guest", Password: "guest"}
	conn, err := Connect(context.Background(), cfg, fastPolicy, logger)

	assert.Nil(t, conn)
	assert.ErrorContains(t, err, "failed to connect to RabbitMQ")
}

func TestClose_NilConnection(t *testing.T) {
	assert.NotPanics(t, func() { Close(nil, logger) })
}
