package glide

import (
	"context"

	"github.com/alex-arzola-imp/glide-for-redis/pkg/resp"
)

// SAdd adds the given members to the set at key, creating it if needed,
// and returns how many of them were not already present.
func (c *Client) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	args := append([]any{key}, anySlice(members)...)
	return c.sendInt(ctx, resp.NewCommand("SADD", args...))
}

// SRem removes the given members from the set at key and returns how
// many of them were present.
func (c *Client) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	args := append([]any{key}, anySlice(members)...)
	return c.sendInt(ctx, resp.NewCommand("SREM", args...))
}

// SMembers returns all members of the set at key, an empty slice for a
// missing key. The server reply carries no ordering guarantee.
func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	return c.sendStrings(ctx, resp.NewCommand("SMEMBERS", key))
}

// SCard returns the number of members in the set at key, zero for a
// missing key.
func (c *Client) SCard(ctx context.Context, key string) (int64, error) {
	return c.sendInt(ctx, resp.NewCommand("SCARD", key))
}

// SIsMember reports whether member is in the set at key.
func (c *Client) SIsMember(ctx context.Context, key, member string) (bool, error) {
	return c.sendBool(ctx, resp.NewCommand("SISMEMBER", key, member))
}
