package handlers

import (
	"errors"
	"io"
	"net/http"

	"server/internal/domain"
)

// maxWebhookBytes bounds the webhook payload size, per Stripe's guidance.
const maxWebhookBytes = 64 << 10

// StripeWebhook ingests billing events. The endpoint is unauthenticated;
// the payload signature is the only trust anchor.
func (a *App) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if a.Billing == nil {
		a.error(w, http.StatusServiceUnavailable, "billing is not configured")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		a.error(w, http.StatusBadRequest, "failed to read payload")
		return
	}

	if err := a.Billing.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			a.error(w, http.StatusBadRequest, "invalid signature")
			return
		}
		a.Logger.Error().Err(err).Msg("webhook processing failed")
		a.error(w, http.StatusInternalServerError, "failed to process event")
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"received": true})
}
