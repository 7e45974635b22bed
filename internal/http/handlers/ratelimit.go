package handlers

import (
	"net/http"
)

type rateLimitResponse struct {
	Tier      string `json:"tier"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Reset     string `json:"reset"`
}

// RateLimitStatus reports the caller's tier and how much of today's quota is
// left. Reading the status is free and never counts against the quota.
func (a *App) RateLimitStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "missing user context")
		return
	}

	ctx := r.Context()
	tier := a.Limiter.UserTier(ctx, userID)
	remaining := a.Limiter.Remaining(ctx, userID)
	if remaining < 0 {
		remaining = 0
	}

	a.json(w, http.StatusOK, rateLimitResponse{
		Tier:      tier,
		Limit:     a.Limiter.Quota(tier),
		Remaining: remaining,
		Reset:     "next day",
	})
}
