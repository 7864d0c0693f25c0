package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-notes/internal/models"
)

//go:generate mockgen -source=get_note.go -destination=mock_get_note.go -package=handlers

// NoteGetter defines the interface that the service must implement.
type NoteGetter interface {
	Get(ctx context.Context, userID, noteID int64) (*models.NoteDB, error)
}

// NewGetNoteHandler returns an HTTP handler that returns one note.
// @Summary Get a note
// @Description Returns a note of the logged-in user. Notes of other users are reported as not found.
// @Tags notes
// @Produce json
// @Param id path int true "Note id"
// @Success 200 {object} handlers.Response "Note"
// @Failure 401 {object} handlers.Response "Not logged in"
// @Failure 404 {object} handlers.Response "Note not found"
// @Failure 500 {object} handlers.Response "Internal server error"
// @Router /get_note/{id} [get]
// @Security SessionCookie
func NewGetNoteHandler(svc NoteGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := noteID(r)
		if !ok {
			writeJSONError(w, http.StatusNotFound, msgNoteNotFound)
			return
		}

		note, err := svc.Get(r.Context(), identity(r).UserID, id)
		if err != nil {
			writeNoteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, Response{
			Success:  true,
			Message:  "OK",
			NoteData: newNoteData(note),
		})
	}
}
