package connection

import (
	"context"
	"fmt"
	"time"

	"github.com/alex-arzola-imp/glide-for-redis/pkg/resp"
)

// Backend holds everything needed to create a session independently of
// any live one: the dial configuration, the handshake parameters, and
// the availability signal that dispatchers wait on while the connection
// is down. It outlives individual sessions.
type Backend struct {
	config *Config
	signal *AvailabilitySignal
}

func newBackend(config *Config) *Backend {
	return &Backend{
		config: config,
		signal: NewAvailabilitySignal(),
	}
}

// connect runs a single connection attempt: dial, then the AUTH/SELECT
// handshake. The whole attempt is bounded by ConnectTimeout.
func (b *Backend) connect(ctx context.Context) (*resp.Session, error) {
	if b.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.config.ConnectTimeout)
		defer cancel()
	}

	conn, err := b.config.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", b.config.Addr, err)
	}

	return resp.NewSession(ctx, conn, resp.SessionConfig{
		Username: b.config.Username,
		Password: b.config.Password,
		Database: b.config.Database,
		Logger:   b.config.Logger,
	})
}

// connectWithRetry runs connection attempts under the configured retry
// strategy until one succeeds, the strategy gives up, or ctx is done.
// It is shared by initial construction and by reconnection.
func (b *Backend) connectWithRetry(ctx context.Context) (*resp.Session, error) {
	strategy := b.config.RetryStrategy

	attempt := 0
	for {
		sess, err := b.connect(ctx)
		if err == nil {
			strategy.Reset()
			return sess, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		b.config.Logger.Warn("connection attempt failed", "attempt", attempt+1, "addr", b.config.Addr, "error", err)

		delay, retryAgain := strategy.NextDelay(attempt, err)
		if !retryAgain {
			return nil, &ConnectError{Attempts: attempt + 1, LastErr: err}
		}
		attempt++

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}
