package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"server/internal/domain"
)

type upgradeRequest struct {
	Tier  string `json:"tier"`
	Email string `json:"email"`
}

// Upgrade subscribes the caller to a paid tier.
func (a *App) Upgrade(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "missing user context")
		return
	}
	if a.Billing == nil {
		a.error(w, http.StatusServiceUnavailable, "billing is not configured")
		return
	}

	var req upgradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	tier := strings.ToLower(strings.TrimSpace(req.Tier))
	if tier == "" {
		a.error(w, http.StatusBadRequest, "tier required")
		return
	}

	if err := a.Billing.Upgrade(r.Context(), userID, req.Email, tier); err != nil {
		if errors.Is(err, domain.ErrInvalidTier) {
			a.error(w, http.StatusBadRequest, "unknown tier")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Str("tier", tier).Msg("upgrade failed")
		a.error(w, http.StatusBadGateway, "upgrade failed")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "tier": tier})
}
