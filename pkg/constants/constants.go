package constants

import "time"

const (
	// DefaultResponseTimeout bounds how long a dispatched command waits
	// for its reply before the call fails with ErrTimeout.
	DefaultResponseTimeout = 250 * time.Millisecond

	// DefaultConnectTimeout bounds one connection attempt, TLS and
	// handshake included.
	DefaultConnectTimeout = 2 * time.Second

	// DefaultPort is used when an address carries no port.
	DefaultPort = 6379

	// UnknownDatabase is reported by CurrentDatabase when no live session
	// is available to ask.
	UnknownDatabase = -1
)

var (
	RedisScheme       = "redis"
	RedisSecureScheme = "rediss"
)
