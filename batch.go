package glide

import (
	"context"

	"github.com/alex-arzola-imp/glide-for-redis/pkg/resp"
)

// Batch assembles commands for one pipelined round trip. A plain batch
// sends the commands back to back and collects one reply per command; an
// atomic batch additionally wraps them in MULTI/EXEC so they execute as
// a transaction. Builder methods append in call order and return the
// batch for chaining.
//
// A batch holds no connection state and may be rebuilt and re-run
// freely; it is not safe for concurrent mutation.
type Batch struct {
	atomic bool
	cmds   []resp.Command
}

// NewBatch returns an empty non-atomic batch: a pipeline.
func NewBatch() *Batch {
	return &Batch{}
}

// NewAtomicBatch returns an empty atomic batch: a MULTI/EXEC
// transaction.
func NewAtomicBatch() *Batch {
	return &Batch{atomic: true}
}

// Len returns how many commands the batch holds.
func (b *Batch) Len() int {
	return len(b.cmds)
}

// CustomCommand appends a command assembled from a name and arguments.
func (b *Batch) CustomCommand(name string, args ...any) *Batch {
	b.cmds = append(b.cmds, resp.NewCommand(name, args...))
	return b
}

func (b *Batch) Get(key string) *Batch {
	return b.CustomCommand("GET", key)
}

func (b *Batch) Set(key, value string) *Batch {
	return b.CustomCommand("SET", key, value)
}

func (b *Batch) Del(keys ...string) *Batch {
	return b.CustomCommand("DEL", anySlice(keys)...)
}

func (b *Batch) Incr(key string) *Batch {
	return b.CustomCommand("INCR", key)
}

func (b *Batch) IncrBy(key string, amount int64) *Batch {
	return b.CustomCommand("INCRBY", key, amount)
}

func (b *Batch) HSet(key string, fields map[string]string) *Batch {
	args := make([]any, 0, len(fields)*2+1)
	args = append(args, key)
	for field, value := range fields {
		args = append(args, field, value)
	}
	return b.CustomCommand("HSET", args...)
}

func (b *Batch) HGetAll(key string) *Batch {
	return b.CustomCommand("HGETALL", key)
}

func (b *Batch) SAdd(key string, members ...string) *Batch {
	args := append([]any{key}, anySlice(members)...)
	return b.CustomCommand("SADD", args...)
}

func (b *Batch) SMembers(key string) *Batch {
	return b.CustomCommand("SMEMBERS", key)
}

// Exec runs the batch and returns one reply per command, in command
// order. The whole batch travels as one pipeline; if the connection
// drops mid-flight, the entire batch is resent once on the fresh
// connection, never command by command.
//
// For an atomic batch the replies are EXEC's results. An atomic batch
// aborted by a WATCH returns (nil, nil): no replies, but no error,
// since the abort is an expected outcome of optimistic locking. A
// command refused by the server fails the whole Exec with the server's
// error.
func (c *Client) Exec(ctx context.Context, b *Batch) ([]resp.Value, error) {
	n := len(b.cmds)
	if n == 0 {
		return []resp.Value{}, nil
	}

	if !b.atomic {
		return c.manager.SendBatch(ctx, b.cmds, 0, n)
	}

	cmds := make([]resp.Command, 0, n+2)
	cmds = append(cmds, resp.NewCommand("MULTI"))
	cmds = append(cmds, b.cmds...)
	cmds = append(cmds, resp.NewCommand("EXEC"))

	// Skip the MULTI acknowledgement and the n QUEUED replies; EXEC's
	// reply carries the per-command results.
	vals, err := c.manager.SendBatch(ctx, cmds, n+1, 1)
	if err != nil {
		return nil, err
	}
	execReply := vals[0]
	if execReply.IsNil() {
		return nil, nil
	}
	return execReply.Slice()
}
