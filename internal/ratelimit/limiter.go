// Package ratelimit gates metered operations behind per-user daily quotas
// keyed by subscription tier, with Redis as the counter store.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"server/internal/domain"
)

const (
	TierFree    = "free"
	TierBasic   = "basic"
	TierPremium = "premium"

	dateLayout = "2006-01-02"

	// Request counters only need to survive one day boundary plus clock
	// skew; usage counters back the 30-day history endpoint and must
	// outlive the window they report on.
	requestCounterTTL = 48 * time.Hour
	usageCounterTTL   = 32 * 24 * time.Hour
)

// Billing providers use "plus" and "pro" for the paid tiers; quota lookup
// accepts both spellings so webhook-assigned tiers resolve correctly.
var tierAliases = map[string]string{
	"plus": TierBasic,
	"pro":  TierPremium,
}

// RedisClient is the subset of go-redis client methods used by the Limiter.
// Keeping it as an interface enables swapping in a miniredis-backed client in
// tests.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// Config holds the tier-to-quota table. Quota numbers are policy, not
// protocol, and come from the environment.
type Config struct {
	Tiers       map[string]int
	DefaultTier string
}

// DefaultConfig returns the stock tier table.
func DefaultConfig() Config {
	return Config{
		Tiers: map[string]int{
			TierFree:    50,
			TierBasic:   200,
			TierPremium: 1000,
		},
		DefaultTier: TierFree,
	}
}

// DayUsage is one day of recorded activity for a user.
type DayUsage struct {
	Date     string `json:"date"`
	Requests int    `json:"requests"`
}

// QuotaError reports a rejected metered request. It matches
// domain.ErrQuotaExceeded under errors.Is.
type QuotaError struct {
	Tier  string `json:"tier"`
	Limit int    `json:"limit"`
	Reset string `json:"reset"`
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("rate limit exceeded: tier %q allows %d requests per day", e.Tier, e.Limit)
}

func (e *QuotaError) Is(target error) bool {
	return target == domain.ErrQuotaExceeded
}

var errStoreUnavailable = errors.New("ratelimit: counter store unavailable")

// Limiter enforces per-user daily quotas. Construct one instance at startup
// and pass it to request handlers; there is no package-level singleton.
type Limiter struct {
	rdb    RedisClient
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time
}

// New builds a Limiter on top of the given counter store client. A nil client
// is tolerated: all reads then degrade to free-tier defaults and metered
// requests are admitted without being counted.
func New(rdb RedisClient, cfg Config, logger zerolog.Logger) *Limiter {
	if cfg.Tiers == nil {
		cfg = DefaultConfig()
	}
	if cfg.DefaultTier == "" {
		cfg.DefaultTier = TierFree
	}
	return &Limiter{
		rdb:    rdb,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// store is the single capability check for the counter store. Every method
// degrades uniformly when it reports unavailable.
func (l *Limiter) store() (RedisClient, error) {
	if l.rdb == nil {
		return nil, errStoreUnavailable
	}
	return l.rdb, nil
}

// UserTier returns the stored tier for the user, or the default tier when the
// key is absent, empty, or the store cannot be reached. A store outage must
// never lock users out of the free allotment.
func (l *Limiter) UserTier(ctx context.Context, userID string) string {
	rdb, err := l.store()
	if err != nil {
		return l.cfg.DefaultTier
	}
	tier, err := rdb.Get(ctx, tierKey(userID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			l.logger.Warn().Err(err).Str("user_id", userID).Msg("tier read failed, defaulting")
		}
		return l.cfg.DefaultTier
	}
	if strings.TrimSpace(tier) == "" {
		return l.cfg.DefaultTier
	}
	return tier
}

// Quota returns the daily quota for a tier name. Unrecognized names resolve
// to the default tier's quota: stored tier values and the configured table
// can drift apart over time, and a stale tier must not panic the gate.
func (l *Limiter) Quota(tier string) int {
	name := strings.ToLower(strings.TrimSpace(tier))
	if canonical, ok := tierAliases[name]; ok {
		name = canonical
	}
	if q, ok := l.cfg.Tiers[name]; ok {
		return q
	}
	return l.cfg.Tiers[l.cfg.DefaultTier]
}

// Remaining computes quota minus today's counter. The raw value may be
// negative after concurrent over-admission; callers clamp for display.
func (l *Limiter) Remaining(ctx context.Context, userID string) int {
	return l.Quota(l.UserTier(ctx, userID)) - l.todayCount(ctx, userID)
}

// Check gates one metered request. Internal calls (fan-out from an operation
// that was already metered) are exempt: no read, no increment. Rejected
// requests are free and do not touch the counters. Failure to record an
// admitted request is logged and swallowed rather than turned into a denial.
func (l *Limiter) Check(ctx context.Context, userID string, internal bool) error {
	if internal {
		return nil
	}
	rdb, err := l.store()
	if err != nil {
		return nil
	}

	tier := l.UserTier(ctx, userID)
	limit := l.Quota(tier)
	if l.todayCount(ctx, userID) >= limit {
		return &QuotaError{Tier: tier, Limit: limit, Reset: "next day"}
	}

	day := l.today()
	reqKey := requestsKey(userID, day)
	if err := rdb.Incr(ctx, reqKey).Err(); err != nil {
		l.logger.Warn().Err(err).Str("user_id", userID).Msg("request counter increment failed")
		return nil
	}
	if err := rdb.Expire(ctx, reqKey, requestCounterTTL).Err(); err != nil {
		l.logger.Warn().Err(err).Str("user_id", userID).Msg("request counter expire failed")
	}

	usgKey := usageKey(userID, day)
	if err := rdb.Incr(ctx, usgKey).Err(); err != nil {
		l.logger.Warn().Err(err).Str("user_id", userID).Msg("usage counter increment failed")
		return nil
	}
	if err := rdb.Expire(ctx, usgKey, usageCounterTTL).Err(); err != nil {
		l.logger.Warn().Err(err).Str("user_id", userID).Msg("usage counter expire failed")
	}
	return nil
}

// DailyUsage returns recorded activity for the last N calendar days including
// today, oldest first. Days without a stored counter are omitted: an expired
// or never-written day is indistinguishable from zero and is not reported as
// zero. Store failures degrade to an empty history.
func (l *Limiter) DailyUsage(ctx context.Context, userID string, days int) []DayUsage {
	if days <= 0 {
		days = 30
	}
	rdb, err := l.store()
	if err != nil {
		return []DayUsage{}
	}

	// Oldest day first so the result is already in ascending date order.
	dates := make([]string, 0, days)
	keys := make([]string, 0, days)
	today := l.now()
	for i := days - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format(dateLayout)
		dates = append(dates, date)
		keys = append(keys, usageKey(userID, date))
	}

	vals, err := rdb.MGet(ctx, keys...).Result()
	if err != nil {
		l.logger.Warn().Err(err).Str("user_id", userID).Msg("usage history read failed")
		return []DayUsage{}
	}

	usage := make([]DayUsage, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			continue
		}
		usage = append(usage, DayUsage{Date: dates[i], Requests: n})
	}
	return usage
}

// SetUserTier durably assigns a tier. Unrecognized tier names are rejected,
// never coerced. Existing counters are untouched; the new quota takes effect
// on the next Check because quota is looked up fresh each time.
func (l *Limiter) SetUserTier(ctx context.Context, userID, tier string) error {
	name := strings.ToLower(strings.TrimSpace(tier))
	resolved := name
	if canonical, ok := tierAliases[name]; ok {
		resolved = canonical
	}
	if _, ok := l.cfg.Tiers[resolved]; !ok {
		return fmt.Errorf("%w: %q", domain.ErrInvalidTier, tier)
	}
	rdb, err := l.store()
	if err != nil {
		return err
	}
	if err := rdb.Set(ctx, tierKey(userID), name, 0).Err(); err != nil {
		return fmt.Errorf("ratelimit: store tier: %w", err)
	}
	return nil
}

func (l *Limiter) todayCount(ctx context.Context, userID string) int {
	rdb, err := l.store()
	if err != nil {
		return 0
	}
	n, err := rdb.Get(ctx, requestsKey(userID, l.today())).Int()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			l.logger.Warn().Err(err).Str("user_id", userID).Msg("request counter read failed, defaulting to 0")
		}
		return 0
	}
	return n
}

func (l *Limiter) today() string {
	return l.now().Format(dateLayout)
}

func tierKey(userID string) string {
	return "user:" + userID + ":tier"
}

func requestsKey(userID, date string) string {
	return "user:" + userID + ":requests:" + date
}

func usageKey(userID, date string) string {
	return "user:" + userID + ":usage:" + date
}
