package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-notes/internal/models"
	"github.com/sbilibin2017/gw-notes/internal/services"
)

//go:generate mockgen -source=edit_note.go -destination=mock_edit_note.go -package=handlers

// NoteUpdater defines the interface that the service must implement.
type NoteUpdater interface {
	Update(ctx context.Context, userID, noteID int64, in services.NoteInput) (*models.NoteDB, error)
}

// NewEditNoteHandler returns an HTTP handler that updates a note.
// @Summary Edit a note
// @Description Updates title and content. A new image replaces the current one; without an image the current one is kept.
// @Tags notes
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Note id"
// @Param title formData string true "Title, at most 200 characters"
// @Param content formData string false "Content"
// @Param image formData file false "Replacement image"
// @Success 200 {object} handlers.Response "Note updated successfully"
// @Failure 400 {object} handlers.Response "Validation error"
// @Failure 401 {object} handlers.Response "Not logged in"
// @Failure 404 {object} handlers.Response "Note not found"
// @Failure 413 {object} handlers.Response "Request body too large"
// @Failure 500 {object} handlers.Response "Internal server error"
// @Router /edit_note/{id} [post]
// @Security SessionCookie
func NewEditNoteHandler(svc NoteUpdater, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := noteID(r)
		if !ok {
			writeJSONError(w, http.StatusNotFound, msgNoteNotFound)
			return
		}

		in, closeForm, err := readNoteForm(w, r, maxBytes)
		defer closeForm()
		if err != nil {
			writeNoteError(w, r, err)
			return
		}

		note, err := svc.Update(r.Context(), identity(r).UserID, id, in)
		if err != nil {
			writeNoteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, Response{
			Success:  true,
			Message:  "Note updated successfully",
			NoteData: newNoteData(note),
		})
	}
}
