package glide_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-arzola-imp/glide-for-redis/pkg/resp"
)

func TestHashCommands(t *testing.T) {
	_, client := startClient(t)
	ctx := context.Background()

	added, err := client.HSet(ctx, "user:1", map[string]string{
		"name":  "ada",
		"email": "ada@example.com",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, added)

	t.Run("hget", func(t *testing.T) {
		name, err := client.HGet(ctx, "user:1", "name")
		require.NoError(t, err)
		assert.Equal(t, "ada", name)

		_, err = client.HGet(ctx, "user:1", "missing")
		require.ErrorIs(t, err, resp.ErrNil)

		_, err = client.HGet(ctx, "no-such-hash", "name")
		require.ErrorIs(t, err, resp.ErrNil)
	})

	t.Run("hsetnx", func(t *testing.T) {
		set, err := client.HSetNX(ctx, "user:1", "role", "admin")
		require.NoError(t, err)
		assert.True(t, set)

		set, err = client.HSetNX(ctx, "user:1", "role", "viewer")
		require.NoError(t, err)
		assert.False(t, set)

		role, err := client.HGet(ctx, "user:1", "role")
		require.NoError(t, err)
		assert.Equal(t, "admin", role)
	})

	t.Run("hlen and hexists", func(t *testing.T) {
		n, err := client.HLen(ctx, "user:1")
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		ok, err := client.HExists(ctx, "user:1", "email")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = client.HExists(ctx, "user:1", "phone")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("hgetall", func(t *testing.T) {
		all, err := client.HGetAll(ctx, "user:1")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"name":  "ada",
			"email": "ada@example.com",
			"role":  "admin",
		}, all)

		empty, err := client.HGetAll(ctx, "no-such-hash")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("hvals", func(t *testing.T) {
		vals, err := client.HVals(ctx, "user:1")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"ada", "ada@example.com", "admin"}, vals)
	})

	t.Run("hmget", func(t *testing.T) {
		vals, err := client.HMGet(ctx, "user:1", "name", "phone", "role")
		require.NoError(t, err)
		require.Len(t, vals, 3)

		name, err := vals[0].Text()
		require.NoError(t, err)
		assert.Equal(t, "ada", name)

		assert.True(t, vals[1].IsNil())

		role, err := vals[2].Text()
		require.NoError(t, err)
		assert.Equal(t, "admin", role)
	})

	t.Run("hdel", func(t *testing.T) {
		n, err := client.HDel(ctx, "user:1", "email", "phone")
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		ok, err := client.HExists(ctx, "user:1", "email")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestHashCounters(t *testing.T) {
	_, client := startClient(t)
	ctx := context.Background()

	n, err := client.HIncrBy(ctx, "stats", "visits", 5)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	n, err = client.HIncrBy(ctx, "stats", "visits", -2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	f, err := client.HIncrByFloat(ctx, "stats", "ratio", 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, f, 1e-9)

	f, err = client.HIncrByFloat(ctx, "stats", "ratio", 1.25)
	require.NoError(t, err)
	assert.InDelta(t, 1.75, f, 1e-9)
}

func TestHashWrongType(t *testing.T) {
	_, client := startClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "plain", "text"))

	_, err := client.HSet(ctx, "plain", map[string]string{"f": "v"})
	var serverErr *resp.ServerError
	require.ErrorAs(t, err, &serverErr)
}
