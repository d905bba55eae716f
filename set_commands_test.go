package glide_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCommands(t *testing.T) {
	_, client := startClient(t)
	ctx := context.Background()

	added, err := client.SAdd(ctx, "colors", "red", "green", "blue", "red")
	require.NoError(t, err)
	assert.EqualValues(t, 3, added)

	t.Run("scard and sismember", func(t *testing.T) {
		n, err := client.SCard(ctx, "colors")
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)

		ok, err := client.SIsMember(ctx, "colors", "green")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = client.SIsMember(ctx, "colors", "mauve")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("smembers", func(t *testing.T) {
		members, err := client.SMembers(ctx, "colors")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"red", "green", "blue"}, members)

		empty, err := client.SMembers(ctx, "no-such-set")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("srem", func(t *testing.T) {
		removed, err := client.SRem(ctx, "colors", "red", "mauve")
		require.NoError(t, err)
		assert.EqualValues(t, 1, removed)

		n, err := client.SCard(ctx, "colors")
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})
}
