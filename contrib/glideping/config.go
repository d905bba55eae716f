// Package glideping probes a Redis or Valkey server over one resilient
// client connection: it measures round-trip latency and shows how
// dispatches behave while the connection drops and recovers.
package glideping

import (
	"fmt"
	"time"

	"github.com/alex-arzola-imp/glide-for-redis/pkg/connection"
	"github.com/alex-arzola-imp/glide-for-redis/pkg/retry"
)

// Config holds all configuration options for a probe run.
type Config struct {
	// Addr is the host:port of the server to probe.
	Addr string
	// URL is a redis:// or rediss:// URL. When set it overrides Addr,
	// the credential fields, and Database.
	URL string

	// Username and Password authenticate the connection when Password is
	// set.
	Username string
	Password string
	// Database is the index to SELECT on connect.
	Database int

	// Count is how many pings to send. Zero means ping until the context
	// is cancelled.
	Count int
	// Interval is the pause between pings.
	Interval time.Duration
	// ResponseTimeout bounds each ping; zero keeps the client default.
	ResponseTimeout time.Duration

	// Verbose logs every ping rather than just failures and the summary.
	Verbose bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Addr:     "localhost:6379",
		Count:    10,
		Interval: time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Addr == "" && c.URL == "" {
		return fmt.Errorf("addr or url is required")
	}
	if c.Count < 0 {
		return fmt.Errorf("count must not be negative, got %d", c.Count)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", c.Interval)
	}
	if c.Database < 0 {
		return fmt.Errorf("database index must not be negative, got %d", c.Database)
	}
	return nil
}

// connectionConfig translates the probe configuration into the client's.
func (c *Config) connectionConfig() (*connection.Config, error) {
	var cfg *connection.Config
	if c.URL != "" {
		parsed, err := connection.ParseURL(c.URL)
		if err != nil {
			return nil, err
		}
		cfg = parsed
	} else {
		cfg = connection.NewConfig(c.Addr)
		cfg.Username = c.Username
		cfg.Password = c.Password
		cfg.Database = c.Database
	}
	if c.ResponseTimeout != 0 {
		cfg.ResponseTimeout = c.ResponseTimeout
	}

	// A probe gives up after a handful of attempts instead of redialing
	// forever, so an unreachable server fails the run within seconds.
	cfg.RetryStrategy = &retry.ExponentialBackoff{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		MaxRetries:   5,
		Jitter:       true,
		JitterFactor: 0.3,
	}

	return cfg, nil
}
