package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"server/internal/domain"
	"server/internal/ratelimit"
	"server/internal/research"
)

type generateQnARequest struct {
	URL          string `json:"url"`
	IncludeAudio bool   `json:"include_audio"`
}

type generateQnAResponse struct {
	*research.Result
	AudioFile string `json:"audio_file,omitempty"`
}

// GenerateQnA runs the full pipeline for a submitted document. The request
// is metered; the optional narration it fans out to is an internal call and
// is not metered again.
func (a *App) GenerateQnA(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var req generateQnARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.URL == "" {
		a.error(w, http.StatusBadRequest, "url required")
		return
	}

	ctx := r.Context()
	if err := a.Limiter.Check(ctx, userID, false); err != nil {
		var qe *ratelimit.QuotaError
		if errors.As(err, &qe) {
			a.quotaExceeded(w, qe)
			return
		}
		a.error(w, http.StatusInternalServerError, "rate limit check failed")
		return
	}

	result, err := a.Research.GenerateQnA(ctx, req.URL)
	if err != nil {
		a.pipelineError(w, err)
		return
	}

	resp := generateQnAResponse{Result: result}
	if req.IncludeAudio && a.Narrator != nil {
		name, err := a.Narrator.Narrate(ctx, result.Summary, r.Header.Get("Accept-Language"))
		if err != nil {
			a.Logger.Warn().Err(err).Str("user_id", userID).Msg("narration failed, returning text only")
		} else {
			resp.AudioFile = name
		}
	}
	a.json(w, http.StatusOK, resp)
}

// pipelineError maps research pipeline failures onto status codes.
func (a *App) pipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedDocument):
		a.error(w, http.StatusBadRequest, "only PDF and HTML documents are supported")
	case errors.Is(err, domain.ErrProviderFailure):
		a.Logger.Error().Err(err).Msg("pipeline provider failure")
		a.error(w, http.StatusBadGateway, "upstream provider failed")
	default:
		a.Logger.Error().Err(err).Msg("pipeline failure")
		a.error(w, http.StatusInternalServerError, "failed to process document")
	}
}
