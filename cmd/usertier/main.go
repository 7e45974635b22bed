// Command usertier assigns a subscription tier to a user directly in the
// counter store. It is the operational escape hatch for support work when a
// billing webhook was missed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"

	"server/internal/infra"
	"server/internal/ratelimit"
)

func main() {
	var (
		userFlag string
		tierFlag string
	)

	flag.StringVar(&userFlag, "user", "", "user ID to update")
	flag.StringVar(&tierFlag, "tier", "", "tier to assign (free, basic, premium; plus and pro are accepted aliases)")
	flag.Parse()

	userID := strings.TrimSpace(userFlag)
	tier := strings.TrimSpace(tierFlag)
	if userID == "" {
		exitWithError(errors.New("-user is required"))
	}
	if tier == "" {
		exitWithError(errors.New("-tier is required"))
	}

	_ = godotenv.Load()

	addr := getenv("REDIS_HOST", "localhost") + ":" + getenv("REDIS_PORT", "6379")
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		exitWithError(fmt.Errorf("failed to connect to redis at %s: %w", addr, err))
	}

	logger := infra.NewLogger("cli").With().Str("cmd", "usertier").Logger()
	limiter := ratelimit.New(rdb, ratelimit.DefaultConfig(), logger)

	if err := limiter.SetUserTier(ctx, userID, tier); err != nil {
		exitWithError(fmt.Errorf("failed to set tier: %w", err))
	}

	assigned := limiter.UserTier(ctx, userID)
	fmt.Printf("User %s set to tier %s (daily quota %d)\n", userID, assigned, limiter.Quota(assigned))
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
