package handlers

import (
	"net/http"

	"github.com/sbilibin2017/gw-notes/internal/views"
)

// NewIndexHandler renders the landing page.
func NewIndexHandler(renderer Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderer.Render(w, r, http.StatusOK, views.IndexPage, pageData(r))
	}
}

// NewNotFoundHandler renders the 404 page for unknown routes.
func NewNotFoundHandler(renderer Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderer.Render(w, r, http.StatusNotFound, views.NotFoundPage, pageData(r))
	}
}
