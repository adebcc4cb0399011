// Command breaker trips, clears, or reports the shared circuit breaker so
// risk tooling can halt signal generation without touching the engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/config"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/state"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		trip       = flag.Bool("trip", false, "activate the circuit breaker")
		clear      = flag.Bool("clear", false, "deactivate the circuit breaker")
	)
	flag.Parse()

	if *trip && *clear {
		fmt.Fprintln(os.Stderr, "choose one of -trip or -clear")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	creds := config.LoadCredentials()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := state.New(ctx, cfg.Redis.Addr, creds.RedisPassword, cfg.Redis.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect redis: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	switch {
	case *trip:
		if err := st.Trip(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "trip: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("circuit breaker tripped")
	case *clear:
		if err := st.Clear(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "clear: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("circuit breaker cleared")
	default:
		tripped, err := st.Tripped(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "status: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("tripped: %v\n", tripped)
	}
}
