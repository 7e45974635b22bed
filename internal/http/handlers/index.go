package handlers

import (
	_ "embed"
	"net/http"
)

//go:embed index.html
var indexPage []byte

// Index serves the built-in submission form for trying the API without the
// frontend.
func (a *App) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(indexPage)
}
