package handlers

import (
	"net/http"

	"server/internal/ratelimit"
)

type usageStatsResponse struct {
	TotalLimit        int                  `json:"total_limit"`
	UsedRequests      int                  `json:"used_requests"`
	RemainingRequests int                  `json:"remaining_requests"`
	DailyUsage        []ratelimit.DayUsage `json:"daily_usage"`
	Tier              string               `json:"tier"`
}

// UsageStats reports today's quota consumption plus the recent per-day
// history. Used requests may exceed the limit when the tier was downgraded
// mid-day; remaining is clamped so the response never goes negative.
func (a *App) UsageStats(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "missing user context")
		return
	}

	ctx := r.Context()
	tier := a.Limiter.UserTier(ctx, userID)
	limit := a.Limiter.Quota(tier)
	remaining := a.Limiter.Remaining(ctx, userID)
	used := limit - remaining
	if remaining < 0 {
		remaining = 0
	}

	daily := a.Limiter.DailyUsage(ctx, userID, 0)
	if daily == nil {
		daily = []ratelimit.DayUsage{}
	}

	a.json(w, http.StatusOK, usageStatsResponse{
		TotalLimit:        limit,
		UsedRequests:      used,
		RemainingRequests: remaining,
		DailyUsage:        daily,
		Tier:              tier,
	})
}
