package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"server/internal/storage"
)

func TestGenerateAudioSuccess(t *testing.T) {
	app, mr := newTestApp(t)
	app.Narrator = stubNarrator{name: "audio_xyz.mp3"}

	rec := httptest.NewRecorder()
	app.GenerateAudio(rec, authedRequest(http.MethodPost, "/api/generate-audio", `{"url":"https://example.com/paper.pdf"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp generateAudioResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := generateAudioResponse{
		Success:      true,
		ArticleTitle: "A Title",
		FinalSummary: "a summary",
		AudioFile:    "audio_xyz.mp3",
	}
	if resp != want {
		t.Fatalf("response = %+v, want %+v", resp, want)
	}
	if got, _ := mr.Get(todayRequestsKey("user_1")); got != "1" {
		t.Fatalf("request counter = %q, want 1", got)
	}
}

func TestGenerateAudioQuotaExceeded(t *testing.T) {
	app, mr := newTestApp(t)
	app.Narrator = stubNarrator{name: "audio_xyz.mp3"}
	mr.Set(todayRequestsKey("user_1"), "50")

	rec := httptest.NewRecorder()
	app.GenerateAudio(rec, authedRequest(http.MethodPost, "/api/generate-audio", `{"url":"https://example.com/x"}`))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestGenerateAudioWithoutNarrator(t *testing.T) {
	app, _ := newTestApp(t)

	rec := httptest.NewRecorder()
	app.GenerateAudio(rec, authedRequest(http.MethodPost, "/api/generate-audio", `{"url":"https://example.com/x"}`))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func serveAudioRequest(name string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/audio/"+name, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("file", name)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestServeAudio(t *testing.T) {
	app, _ := newTestApp(t)
	store, err := storage.NewAudioStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewAudioStore() error = %v", err)
	}
	if _, err := store.Write(context.Background(), "audio_ok.mp3", []byte("mp3 bytes")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	app.Audio = store

	rec := httptest.NewRecorder()
	app.ServeAudio(rec, serveAudioRequest("audio_ok.mp3"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/mpeg" {
		t.Fatalf("content type = %q", got)
	}
	if rec.Body.String() != "mp3 bytes" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestServeAudioNotFound(t *testing.T) {
	app, _ := newTestApp(t)
	store, err := storage.NewAudioStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewAudioStore() error = %v", err)
	}
	app.Audio = store

	rec := httptest.NewRecorder()
	app.ServeAudio(rec, serveAudioRequest("audio_missing.mp3"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
