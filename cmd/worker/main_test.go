package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stamped-ai/ledgerprep/internal/app"
)

func TestRunReturnsConfigError(t *testing.T) {
	t.Setenv("PSQL_HOST", "")
	t.Setenv("PSQL_USER", "ledger")
	t.Setenv("PSQL_PWD", "secret")
	t.Setenv("PSQL_PORT", "5432")
	t.Setenv("PSQL_DATABASE", "ledger")

	err := run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestServeReturnsRedisError(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	cfg := &app.Config{
		PSQLHost:           "localhost",
		PSQLUser:           "ledger",
		PSQLPassword:       "secret",
		PSQLPort:           5432,
		PSQLDatabase:       "ledger",
		PSQLConnectTimeout: time.Second,
		RedisAddr:          addr,
		SnapshotTTL:        time.Hour,
		WorkerConcurrency:  1,
		MetricsAddr:        "127.0.0.1:0",
	}
	err = serve(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect redis")
}
