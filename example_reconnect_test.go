package glide_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	glide "github.com/alex-arzola-imp/glide-for-redis"
	"github.com/alex-arzola-imp/glide-for-redis/internal/fakeredis"
	"github.com/alex-arzola-imp/glide-for-redis/pkg/connection"
	"github.com/alex-arzola-imp/glide-for-redis/pkg/logger"
	"github.com/alex-arzola-imp/glide-for-redis/pkg/retry"
)

// Client survives a dropped connection: the dispatch that discovers the
// drop reconnects under the configured retry strategy and is resent
// once, so the caller never sees the failure.
func ExampleClient() {
	server := fakeredis.NewServer("127.0.0.1:0")
	if err := server.Start(); err != nil {
		panic(err)
	}
	defer server.Stop()

	// Sever the connection on the first GET, once.
	var droppedOnce atomic.Bool
	server.AddStubReply(fakeredis.StubReply{
		Matcher: fakeredis.MatchCommandWithArgs("GET", func([]string) bool {
			return !droppedOnce.Swap(true)
		}),
		Failures: []fakeredis.FailureConfig{{Type: fakeredis.FailureDropConnection, Probability: 1}},
	})

	cfg := connection.NewConfig(server.Address())
	cfg.RetryStrategy = retry.NewExponentialBackoff()
	cfg.Logger = logger.New(slog.NewTextHandler(os.Stderr, nil))

	ctx := context.Background()
	client, err := glide.CreateClient(ctx, cfg)
	if err != nil {
		panic(err)
	}
	defer client.Close()

	if err := client.Set(ctx, "durable", "still here"); err != nil {
		panic(err)
	}

	value, err := client.Get(ctx, "durable")
	if err != nil {
		panic(err)
	}
	fmt.Println("value:", value)
	fmt.Println("connections made:", server.Accepted())

	// Output:
	// value: still here
	// connections made: 2
}
