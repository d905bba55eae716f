package glide

import (
	"context"
	"time"

	"github.com/alex-arzola-imp/glide-for-redis/pkg/resp"
)

// Get returns the value of key. A missing key reports resp.ErrNil.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.sendText(ctx, resp.NewCommand("GET", key))
}

// Set stores value at key, overwriting any previous value of any type.
func (c *Client) Set(ctx context.Context, key, value string) error {
	return c.sendOK(ctx, resp.NewCommand("SET", key, value))
}

// SetOptions modify how SetWithOptions stores a value. At most one of
// OnlyIfExists and OnlyIfAbsent may be set.
type SetOptions struct {
	// OnlyIfExists stores the value only when the key already holds one
	// (XX).
	OnlyIfExists bool

	// OnlyIfAbsent stores the value only when the key does not exist yet
	// (NX).
	OnlyIfAbsent bool

	// ReturnOldValue asks for the previous value as the reply (GET). The
	// reply is nil when the key held none.
	ReturnOldValue bool

	// Expiry sets a time to live on the key. Whole seconds are sent as
	// EX, anything finer as PX.
	Expiry time.Duration

	// KeepTTL preserves a time to live already on the key, which a plain
	// SET would discard (KEEPTTL).
	KeepTTL bool
}

// SetWithOptions stores value at key per opts and returns the raw reply:
// OK on a plain store, a nil value when a condition was not met, and the
// previous value when opts.ReturnOldValue is set.
func (c *Client) SetWithOptions(ctx context.Context, key, value string, opts SetOptions) (resp.Value, error) {
	args := []any{key, value}
	if opts.OnlyIfExists {
		args = append(args, "XX")
	}
	if opts.OnlyIfAbsent {
		args = append(args, "NX")
	}
	if opts.ReturnOldValue {
		args = append(args, "GET")
	}
	if opts.Expiry > 0 {
		if opts.Expiry%time.Second == 0 {
			args = append(args, "EX", int64(opts.Expiry/time.Second))
		} else {
			args = append(args, "PX", int64(opts.Expiry/time.Millisecond))
		}
	}
	if opts.KeepTTL {
		args = append(args, "KEEPTTL")
	}
	return c.manager.Send(ctx, resp.NewCommand("SET", args...))
}

// Del removes the given keys and returns how many of them existed.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	return c.sendInt(ctx, resp.NewCommand("DEL", anySlice(keys)...))
}

// Exists returns how many of the given keys exist, counting repeated
// keys repeatedly.
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	return c.sendInt(ctx, resp.NewCommand("EXISTS", anySlice(keys)...))
}

// Incr increments the integer value of key by one and returns the new
// value. A missing key counts from zero.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return c.sendInt(ctx, resp.NewCommand("INCR", key))
}

// IncrBy increments the integer value of key by amount and returns the
// new value. A missing key counts from zero.
func (c *Client) IncrBy(ctx context.Context, key string, amount int64) (int64, error) {
	return c.sendInt(ctx, resp.NewCommand("INCRBY", key, amount))
}

// Decr decrements the integer value of key by one and returns the new
// value. A missing key counts from zero.
func (c *Client) Decr(ctx context.Context, key string) (int64, error) {
	return c.sendInt(ctx, resp.NewCommand("DECR", key))
}

// DecrBy decrements the integer value of key by amount and returns the
// new value. A missing key counts from zero.
func (c *Client) DecrBy(ctx context.Context, key string, amount int64) (int64, error) {
	return c.sendInt(ctx, resp.NewCommand("DECRBY", key, amount))
}

func anySlice(strs []string) []any {
	out := make([]any, len(strs))
	for i, s := range strs {
		out[i] = s
	}
	return out
}
