package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/internal/ratelimit"
)

type generateAudioRequest struct {
	URL string `json:"url"`
}

type generateAudioResponse struct {
	Success      bool   `json:"success"`
	ArticleTitle string `json:"articleTitle"`
	FinalSummary string `json:"final_summary"`
	AudioFile    string `json:"audio_file"`
}

// GenerateAudio summarizes the document and narrates the summary. The
// request is metered.
func (a *App) GenerateAudio(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "missing user context")
		return
	}
	if a.Narrator == nil {
		a.error(w, http.StatusServiceUnavailable, "narration is not configured")
		return
	}

	var req generateAudioRequest
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

	title, summary, err := a.Research.Summarize(ctx, req.URL)
	if err != nil {
		a.pipelineError(w, err)
		return
	}
	name, err := a.Narrator.Narrate(ctx, summary, r.Header.Get("Accept-Language"))
	if err != nil {
		a.pipelineError(w, err)
		return
	}

	a.json(w, http.StatusOK, generateAudioResponse{
		Success:      true,
		ArticleTitle: title,
		FinalSummary: summary,
		AudioFile:    name,
	})
}

// ServeAudio streams a previously generated narration file.
func (a *App) ServeAudio(w http.ResponseWriter, r *http.Request) {
	if a.Audio == nil {
		a.error(w, http.StatusServiceUnavailable, "audio storage is not configured")
		return
	}
	name := chi.URLParam(r, "file")
	path, err := a.Audio.Path(name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "audio file not found")
			return
		}
		a.error(w, http.StatusBadRequest, "invalid audio file name")
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, path)
}
