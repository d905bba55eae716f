package glideping

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	glide "github.com/alex-arzola-imp/glide-for-redis"
	zerologadapter "github.com/alex-arzola-imp/glide-for-redis/pkg/logger/zerolog"
)

// Result summarizes one probe run.
type Result struct {
	// Sent is how many pings went out.
	Sent int
	// Succeeded and Failed partition Sent. A ping that rode out a
	// reconnection still counts as succeeded; only a dispatch error
	// reaching the probe counts as failed.
	Succeeded int
	Failed    int

	// Min, Max and Total are round-trip times of the succeeded pings.
	Min   time.Duration
	Max   time.Duration
	Total time.Duration
}

func (r *Result) observe(rtt time.Duration) {
	if r.Succeeded == 1 || rtt < r.Min {
		r.Min = rtt
	}
	if rtt > r.Max {
		r.Max = rtt
	}
	r.Total += rtt
}

// Avg returns the mean round-trip time of the succeeded pings.
func (r *Result) Avg() time.Duration {
	if r.Succeeded == 0 {
		return 0
	}
	return r.Total / time.Duration(r.Succeeded)
}

func (r *Result) String() string {
	return fmt.Sprintf("%d pings: %d ok, %d failed, rtt min/avg/max = %v/%v/%v",
		r.Sent, r.Succeeded, r.Failed, r.Min, r.Avg(), r.Max)
}

// Do runs the probe described by config and returns its result. The
// configuration should be validated before calling this function. A run
// cut short by context cancellation returns the partial result without
// an error; only failing to reach the server at all is an error.
func Do(ctx context.Context, config *Config) (*Result, error) {
	return probe(ctx, config, os.Stderr)
}

func probe(ctx context.Context, config *Config, out io.Writer) (*Result, error) {
	zl := zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	if !config.Verbose {
		zl = zl.Level(zerolog.WarnLevel)
	}

	cfg, err := config.connectionConfig()
	if err != nil {
		return nil, err
	}
	cfg.Logger = zerologadapter.FromLogger(zl)

	client, err := glide.CreateClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Addr, err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			zl.Warn().Err(closeErr).Msg("closing client")
		}
	}()

	ticker := time.NewTicker(config.Interval)
	defer ticker.Stop()

	result := &Result{}
	for i := 0; config.Count == 0 || i < config.Count; i++ {
		start := time.Now()
		_, err := client.Ping(ctx)
		rtt := time.Since(start)

		result.Sent++
		if err != nil {
			result.Failed++
			zl.Warn().Err(err).Dur("elapsed", rtt).Msg("ping failed")
		} else {
			result.Succeeded++
			result.observe(rtt)
			zl.Info().Dur("rtt", rtt).Int("seq", result.Sent).Msg("pong")
		}

		if config.Count > 0 && i == config.Count-1 {
			break
		}
		select {
		case <-ctx.Done():
			return result, nil
		case <-ticker.C:
		}
	}

	return result, nil
}
