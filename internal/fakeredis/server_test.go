package fakeredis

import (
	"context"
	"io"
	"net"
	"testing"

	rawslog "log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-arzola-imp/glide-for-redis/pkg/logger"
	"github.com/alex-arzola-imp/glide-for-redis/pkg/resp"
)

func startServer(t *testing.T) *Server {
	t.Helper()
	server := NewServer("127.0.0.1:0")
	require.NoError(t, server.Start())
	t.Cleanup(func() { _ = server.Stop() })
	return server
}

func dialSession(t *testing.T, server *Server, cfg resp.SessionConfig) *resp.Session {
	t.Helper()
	conn, err := net.Dial("tcp", server.Address())
	require.NoError(t, err)
	if cfg.Logger == nil {
		cfg.Logger = logger.New(rawslog.NewTextHandler(io.Discard, nil))
	}
	sess, err := resp.NewSession(context.Background(), conn, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func send(t *testing.T, sess *resp.Session, name string, args ...any) resp.Value {
	t.Helper()
	val, err := sess.Send(context.Background(), resp.NewCommand(name, args...))
	require.NoError(t, err)
	return val
}

func text(t *testing.T, v resp.Value) string {
	t.Helper()
	s, err := v.Text()
	require.NoError(t, err)
	return s
}

func num(t *testing.T, v resp.Value) int64 {
	t.Helper()
	n, err := v.Int()
	require.NoError(t, err)
	return n
}

func TestServer(t *testing.T) {
	server := NewServer("127.0.0.1:0")
	require.NoError(t, server.Start())
	assert.NotEmpty(t, server.Address())
	require.NoError(t, server.Stop())
}

func TestStringCommands(t *testing.T) {
	server := startServer(t)
	sess := dialSession(t, server, resp.SessionConfig{})

	val := send(t, sess, "GET", "missing")
	assert.True(t, val.IsNil())

	assert.Equal(t, "OK", text(t, send(t, sess, "SET", "k", "v")))
	assert.Equal(t, "v", text(t, send(t, sess, "GET", "k")))

	assert.EqualValues(t, 1, num(t, send(t, sess, "EXISTS", "k", "missing")))
	assert.EqualValues(t, 1, num(t, send(t, sess, "DBSIZE")))
	assert.EqualValues(t, 1, num(t, send(t, sess, "DEL", "k", "missing")))
	assert.True(t, send(t, sess, "GET", "k").IsNil())
}

func TestSetCommands(t *testing.T) {
	server := startServer(t)
	sess := dialSession(t, server, resp.SessionConfig{})

	assert.EqualValues(t, 3, num(t, send(t, sess, "SADD", "s", "c", "a", "b")))
	assert.EqualValues(t, 0, num(t, send(t, sess, "SADD", "s", "a")))
	assert.EqualValues(t, 3, num(t, send(t, sess, "SCARD", "s")))
	assert.EqualValues(t, 1, num(t, send(t, sess, "SISMEMBER", "s", "a")))
	assert.EqualValues(t, 0, num(t, send(t, sess, "SISMEMBER", "s", "x")))

	members, err := send(t, sess, "SMEMBERS", "s").Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, members)

	assert.EqualValues(t, 1, num(t, send(t, sess, "SREM", "s", "a", "x")))

	// Type errors are plain error replies, not connection failures.
	send(t, sess, "SET", "str", "v")
	_, err = sess.Send(context.Background(), resp.NewCommand("SADD", "str", "m"))
	var srvErr *resp.ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Contains(t, srvErr.Message, "WRONGTYPE")
	assert.False(t, resp.IsConnectionDropped(err))
}

func TestHashCommands(t *testing.T) {
	server := startServer(t)
	sess := dialSession(t, server, resp.SessionConfig{})

	assert.EqualValues(t, 2, num(t, send(t, sess, "HSET", "h", "f1", "v1", "f2", "v2")))
	assert.Equal(t, "v1", text(t, send(t, sess, "HGET", "h", "f1")))
	assert.True(t, send(t, sess, "HGET", "h", "nope").IsNil())
	assert.True(t, send(t, sess, "HGET", "nope", "f").IsNil())

	assert.EqualValues(t, 0, num(t, send(t, sess, "HSETNX", "h", "f1", "other")))
	assert.EqualValues(t, 1, num(t, send(t, sess, "HSETNX", "h", "f3", "v3")))
	assert.Equal(t, "v1", text(t, send(t, sess, "HGET", "h", "f1")))

	assert.EqualValues(t, 3, num(t, send(t, sess, "HLEN", "h")))
	assert.EqualValues(t, 1, num(t, send(t, sess, "HEXISTS", "h", "f1")))
	assert.EqualValues(t, 0, num(t, send(t, sess, "HEXISTS", "h", "nope")))

	vals, err := send(t, sess, "HVALS", "h").Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2", "v3"}, vals)

	got := send(t, sess, "HMGET", "h", "f1", "nope", "f2")
	slice, err := got.Slice()
	require.NoError(t, err)
	require.Len(t, slice, 3)
	assert.Equal(t, "v1", text(t, slice[0]))
	assert.True(t, slice[1].IsNil())
	assert.Equal(t, "v2", text(t, slice[2]))

	all, err := send(t, sess, "HGETALL", "h").StringMap()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"f1": "v1", "f2": "v2", "f3": "v3"}, all)

	assert.EqualValues(t, 5, num(t, send(t, sess, "HINCRBY", "h", "n", 5)))
	assert.EqualValues(t, 8, num(t, send(t, sess, "HINCRBY", "h", "n", 3)))
	_, err = sess.Send(context.Background(), resp.NewCommand("HINCRBY", "h", "f1", 1))
	require.Error(t, err)

	assert.Equal(t, "10.5", text(t, send(t, sess, "HINCRBYFLOAT", "h", "fl", "10.5")))
	assert.Equal(t, "10.6", text(t, send(t, sess, "HINCRBYFLOAT", "h", "fl", "0.1")))

	assert.EqualValues(t, 5, num(t, send(t, sess, "HDEL", "h", "f1", "f2", "f3", "n", "fl")))
	assert.EqualValues(t, 0, num(t, send(t, sess, "EXISTS", "h")))
}

func TestSelectIsolation(t *testing.T) {
	server := startServer(t)
	sess := dialSession(t, server, resp.SessionConfig{})

	send(t, sess, "SET", "k", "zero")
	assert.Equal(t, "OK", text(t, send(t, sess, "SELECT", 1)))
	assert.True(t, send(t, sess, "GET", "k").IsNil())
	send(t, sess, "SET", "k", "one")
	send(t, sess, "SELECT", 0)
	assert.Equal(t, "zero", text(t, send(t, sess, "GET", "k")))

	_, err := sess.Send(context.Background(), resp.NewCommand("SELECT", 99))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestAuth(t *testing.T) {
	server := startServer(t)
	server.RequireAuth("", "sekret")

	t.Run("explicit AUTH", func(t *testing.T) {
		sess := dialSession(t, server, resp.SessionConfig{})

		_, err := sess.Send(context.Background(), resp.NewCommand("GET", "k"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "NOAUTH")

		_, err = sess.Send(context.Background(), resp.NewCommand("AUTH", "wrong"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "WRONGPASS")

		assert.Equal(t, "OK", text(t, send(t, sess, "AUTH", "sekret")))
		assert.True(t, send(t, sess, "GET", "k").IsNil())
	})

	t.Run("session handshake", func(t *testing.T) {
		sess := dialSession(t, server, resp.SessionConfig{Password: "sekret"})
		assert.Equal(t, "PONG", text(t, send(t, sess, "PING")))
	})
}

func TestTransactions(t *testing.T) {
	server := startServer(t)
	sess := dialSession(t, server, resp.SessionConfig{})

	t.Run("exec runs the queue", func(t *testing.T) {
		assert.Equal(t, "OK", text(t, send(t, sess, "MULTI")))
		assert.Equal(t, "QUEUED", text(t, send(t, sess, "SET", "a", "1")))
		assert.Equal(t, "QUEUED", text(t, send(t, sess, "SADD", "members", "x")))

		results, err := send(t, sess, "EXEC").Slice()
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "OK", text(t, results[0]))
		assert.EqualValues(t, 1, num(t, results[1]))

		assert.Equal(t, "1", text(t, send(t, sess, "GET", "a")))
	})

	t.Run("discard drops the queue", func(t *testing.T) {
		send(t, sess, "MULTI")
		send(t, sess, "SET", "discarded", "yes")
		assert.Equal(t, "OK", text(t, send(t, sess, "DISCARD")))
		assert.True(t, send(t, sess, "GET", "discarded").IsNil())

		_, err := sess.Send(context.Background(), resp.NewCommand("EXEC"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "without MULTI")
	})

	t.Run("watch aborts on modification", func(t *testing.T) {
		other := dialSession(t, server, resp.SessionConfig{})

		send(t, sess, "SET", "wk", "initial")
		send(t, sess, "WATCH", "wk")
		send(t, other, "SET", "wk", "changed")

		send(t, sess, "MULTI")
		send(t, sess, "SET", "wk", "mine")
		val := send(t, sess, "EXEC")
		assert.True(t, val.IsNil())
		assert.Equal(t, resp.KindNilArray, val.Kind())

		assert.Equal(t, "changed", text(t, send(t, sess, "GET", "wk")))
	})

	t.Run("error inside exec fails the call but not the stream", func(t *testing.T) {
		send(t, sess, "SET", "plain", "v")
		send(t, sess, "MULTI")
		send(t, sess, "SADD", "plain", "m")
		send(t, sess, "GET", "plain")
		_, err := sess.Send(context.Background(), resp.NewCommand("EXEC"))
		var srvErr *resp.ServerError
		require.ErrorAs(t, err, &srvErr)
		assert.Contains(t, srvErr.Message, "WRONGTYPE")

		assert.Equal(t, "PONG", text(t, send(t, sess, "PING")))
	})
}

func TestStubReplies(t *testing.T) {
	server := startServer(t)
	sess := dialSession(t, server, resp.SessionConfig{})

	server.AddStubReply(SimpleStubReply("ping", resp.BulkValue("stubbed")))
	assert.Equal(t, "stubbed", text(t, send(t, sess, "PING")))

	server.ClearStubReplies()
	assert.Equal(t, "PONG", text(t, send(t, sess, "PING")))

	// A matcher narrows the stub to specific arguments.
	server.AddStubReply(StubReply{
		Matcher: MatchCommandWithArgs("get", func(args []string) bool {
			return len(args) == 2 && args[1] == "special"
		}),
		Reply: resp.BulkValue("intercepted"),
	})
	assert.Equal(t, "intercepted", text(t, send(t, sess, "GET", "special")))
	assert.True(t, send(t, sess, "GET", "ordinary").IsNil())
	server.ClearStubReplies()

	server.AddStubReply(ErrorStubReply("set", "ERR read only"))
	_, err := sess.Send(context.Background(), resp.NewCommand("SET", "k", "v"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read only")
}

func TestFailureInjection(t *testing.T) {
	t.Run("drop connection", func(t *testing.T) {
		server := startServer(t)
		server.AddStubReply(StubReply{
			Matcher:  MatchCommand("get"),
			Failures: []FailureConfig{{Type: FailureDropConnection, Probability: 1}},
		})
		sess := dialSession(t, server, resp.SessionConfig{})

		_, err := sess.Send(context.Background(), resp.NewCommand("GET", "k"))
		require.Error(t, err)
		assert.True(t, resp.IsConnectionDropped(err))
	})

	t.Run("garbage reply", func(t *testing.T) {
		server := startServer(t)
		server.AddStubReply(StubReply{
			Matcher:  MatchCommand("get"),
			Failures: []FailureConfig{{Type: FailureGarbageReply, Probability: 1}},
		})
		sess := dialSession(t, server, resp.SessionConfig{})

		_, err := sess.Send(context.Background(), resp.NewCommand("GET", "k"))
		require.Error(t, err)
		assert.True(t, resp.IsConnectionDropped(err))
	})

	t.Run("partial reply", func(t *testing.T) {
		server := startServer(t)
		server.AddStubReply(StubReply{
			Matcher:  MatchCommand("get"),
			Reply:    resp.BulkValue("half of this never arrives"),
			Failures: []FailureConfig{{Type: FailurePartialReply, Probability: 1}},
		})
		sess := dialSession(t, server, resp.SessionConfig{})

		_, err := sess.Send(context.Background(), resp.NewCommand("GET", "k"))
		require.Error(t, err)
		assert.True(t, resp.IsConnectionDropped(err))
	})
}

func TestCounters(t *testing.T) {
	server := startServer(t)
	sess := dialSession(t, server, resp.SessionConfig{})

	send(t, sess, "PING")
	send(t, sess, "PING")

	assert.Equal(t, 1, server.Accepted())
	assert.Equal(t, 2, server.Handled())
}

func TestInfo(t *testing.T) {
	server := startServer(t)
	sess := dialSession(t, server, resp.SessionConfig{})

	send(t, sess, "SET", "k", "v")
	info := text(t, send(t, sess, "INFO"))
	assert.Contains(t, info, "redis_version")
	assert.Contains(t, info, "db0:keys=1")
}
