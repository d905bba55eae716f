package glide_test

import (
	"context"
	"io"
	"testing"
	"time"

	rawslog "log/slog"

	"github.com/stretchr/testify/require"

	glide "github.com/alex-arzola-imp/glide-for-redis"
	"github.com/alex-arzola-imp/glide-for-redis/internal/fakeredis"
	"github.com/alex-arzola-imp/glide-for-redis/pkg/connection"
	"github.com/alex-arzola-imp/glide-for-redis/pkg/logger"
	"github.com/alex-arzola-imp/glide-for-redis/pkg/retry"
)

// startServer runs an in-process server on a random port for one test.
func startServer(t *testing.T) *fakeredis.Server {
	t.Helper()

	server := fakeredis.NewServer("127.0.0.1:0")
	require.NoError(t, server.Start())
	t.Cleanup(func() { _ = server.Stop() })
	return server
}

func quietLogger() logger.Logger {
	return logger.New(rawslog.NewTextHandler(io.Discard, nil))
}

// newTestConfig aims a Config at server, with quiet logging, one
// zero-delay reconnection attempt, and a response timeout generous
// enough for loaded CI machines.
func newTestConfig(server *fakeredis.Server) *connection.Config {
	cfg := connection.NewConfig(server.Address())
	cfg.RetryStrategy = retry.Schedule{0}
	cfg.ResponseTimeout = time.Second
	cfg.Logger = quietLogger()
	return cfg
}

func newTestClient(t *testing.T, cfg *connection.Config) *glide.Client {
	t.Helper()

	client, err := glide.CreateClient(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// startClient is the common case: a fresh server and a client on it.
func startClient(t *testing.T) (*fakeredis.Server, *glide.Client) {
	t.Helper()

	server := startServer(t)
	return server, newTestClient(t, newTestConfig(server))
}
