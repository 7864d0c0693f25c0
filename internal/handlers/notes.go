package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sbilibin2017/gw-notes/internal/logger"
	"github.com/sbilibin2017/gw-notes/internal/models"
	"github.com/sbilibin2017/gw-notes/internal/views"
)

//go:generate mockgen -source=notes.go -destination=mock_notes.go -package=handlers

// NotesLister defines the interface that the service must implement.
type NotesLister interface {
	List(ctx context.Context, userID int64, page int, search string) (*models.NotesPage, error)
}

// NewNotesPageHandler renders one page of the user's notes.
// Query: page (default 1), search (substring of title or content).
func NewNotesPageHandler(svc NotesLister, renderer Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := identity(r)

		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}
		search := r.URL.Query().Get("search")

		notes, err := svc.List(r.Context(), id.UserID, page, search)
		if err != nil {
			logger.FromContext(r.Context()).Errorw("failed to list notes", "user_id", id.UserID, "error", err)
			renderer.Render(w, r, http.StatusInternalServerError, views.ErrorPage, pageData(r))
			return
		}

		data := pageData(r)
		data.Notes = notes
		renderer.Render(w, r, http.StatusOK, views.NotesPage, data)
	}
}
