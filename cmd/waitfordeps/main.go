package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// waitfordeps blocks until the storage backends named by TEST_POSTGRES_DSN
// and TEST_REDIS_URL answer, so integration tests can start.
func main() {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	redisURL := os.Getenv("TEST_REDIS_URL")
	if dsn == "" && redisURL == "" {
		fmt.Fprintln(os.Stderr, "TEST_POSTGRES_DSN or TEST_REDIS_URL is required")
		os.Exit(2)
	}

	timeout := 60 * time.Second
	if raw := os.Getenv("WAIT_FOR_DEPS_TIMEOUT_SEC"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			fmt.Fprintf(os.Stderr, "invalid WAIT_FOR_DEPS_TIMEOUT_SEC: %q\n", raw)
			os.Exit(2)
		}
		timeout = time.Duration(secs) * time.Second
	}
	deadline := time.Now().Add(timeout)

	if dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open postgres: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		waitFor("postgres", deadline, db.PingContext)
	}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse redis url: %v\n", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		waitFor("redis", deadline, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
}

func waitFor(name string, deadline time.Time, ping func(context.Context) error) {
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := ping(ctx)
		cancel()
		if err == nil {
			fmt.Printf("%s ready\n", name)
			return
		}
		if time.Now().After(deadline) {
			fmt.Fprintf(os.Stderr, "%s not ready by deadline: %v\n", name, err)
			os.Exit(1)
		}
		time.Sleep(2 * time.Second)
	}
}
