package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/alex-arzola-imp/glide-for-redis/contrib/glideping"
)

func main() {
	// Create config with defaults
	config := glideping.NewConfig()

	// Parse command-line flags into config
	flag.StringVar(&config.Addr, "addr", config.Addr, "Server host:port to probe")
	flag.StringVar(&config.URL, "url", "", "redis:// or rediss:// URL (overrides -addr and credentials)")
	flag.StringVar(&config.Username, "username", "", "Authentication username")
	flag.StringVar(&config.Password, "password", "", "Authentication password")
	flag.IntVar(&config.Database, "database", 0, "Database index to SELECT on connect")
	flag.IntVar(&config.Count, "count", config.Count, "Number of pings to send (0 pings until interrupted)")
	flag.DurationVar(&config.Interval, "interval", config.Interval, "Pause between pings")
	flag.DurationVar(&config.ResponseTimeout, "timeout", 0, "Per-ping response timeout (0 keeps the client default)")
	flag.BoolVar(&config.Verbose, "verbose", false, "Log every ping rather than just failures")

	flag.Parse()

	// Validate configuration
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	// Interrupt stops an unbounded run and prints the partial summary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	result, err := glideping.Do(ctx, config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%v in %v\n", result, time.Since(start).Round(time.Millisecond))
	if result.Failed > 0 {
		os.Exit(1)
	}
}
