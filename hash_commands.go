package glide

import (
	"context"

	"github.com/alex-arzola-imp/glide-for-redis/pkg/resp"
)

// HGet returns the value of field in the hash at key. A missing key or
// field reports resp.ErrNil.
func (c *Client) HGet(ctx context.Context, key, field string) (string, error) {
	return c.sendText(ctx, resp.NewCommand("HGET", key, field))
}

// HSet stores the given field/value pairs in the hash at key, creating
// it if needed, and returns how many fields were newly added.
func (c *Client) HSet(ctx context.Context, key string, fields map[string]string) (int64, error) {
	args := make([]any, 0, len(fields)*2+1)
	args = append(args, key)
	for field, value := range fields {
		args = append(args, field, value)
	}
	return c.sendInt(ctx, resp.NewCommand("HSET", args...))
}

// HSetNX stores value at field in the hash at key only if the field does
// not exist yet. It reports whether the field was set.
func (c *Client) HSetNX(ctx context.Context, key, field, value string) (bool, error) {
	return c.sendBool(ctx, resp.NewCommand("HSETNX", key, field, value))
}

// HDel removes the given fields from the hash at key and returns how
// many of them existed.
func (c *Client) HDel(ctx context.Context, key string, fields ...string) (int64, error) {
	args := append([]any{key}, anySlice(fields)...)
	return c.sendInt(ctx, resp.NewCommand("HDEL", args...))
}

// HLen returns the number of fields in the hash at key, zero for a
// missing key.
func (c *Client) HLen(ctx context.Context, key string) (int64, error) {
	return c.sendInt(ctx, resp.NewCommand("HLEN", key))
}

// HVals returns all values in the hash at key, an empty slice for a
// missing key.
func (c *Client) HVals(ctx context.Context, key string) ([]string, error) {
	return c.sendStrings(ctx, resp.NewCommand("HVALS", key))
}

// HMGet returns the values of the given fields in request order. The
// reply for a missing field is a nil value, so elements are returned raw
// rather than as strings.
func (c *Client) HMGet(ctx context.Context, key string, fields ...string) ([]resp.Value, error) {
	args := append([]any{key}, anySlice(fields)...)
	val, err := c.manager.Send(ctx, resp.NewCommand("HMGET", args...))
	if err != nil {
		return nil, err
	}
	return val.Slice()
}

// HExists reports whether field exists in the hash at key.
func (c *Client) HExists(ctx context.Context, key, field string) (bool, error) {
	return c.sendBool(ctx, resp.NewCommand("HEXISTS", key, field))
}

// HGetAll returns every field and value of the hash at key, an empty map
// for a missing key.
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	val, err := c.manager.Send(ctx, resp.NewCommand("HGETALL", key))
	if err != nil {
		return nil, err
	}
	return val.StringMap()
}

// HIncrBy increments the integer value of field in the hash at key by
// amount and returns the new value. Missing keys and fields count from
// zero.
func (c *Client) HIncrBy(ctx context.Context, key, field string, amount int64) (int64, error) {
	return c.sendInt(ctx, resp.NewCommand("HINCRBY", key, field, amount))
}

// HIncrByFloat increments the float value of field in the hash at key by
// amount and returns the new value. Missing keys and fields count from
// zero.
func (c *Client) HIncrByFloat(ctx context.Context, key, field string, amount float64) (float64, error) {
	return c.sendFloat(ctx, resp.NewCommand("HINCRBYFLOAT", key, field, amount))
}
