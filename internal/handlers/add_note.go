package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-notes/internal/models"
	"github.com/sbilibin2017/gw-notes/internal/services"
)

//go:generate mockgen -source=add_note.go -destination=mock_add_note.go -package=handlers

// NoteCreator defines the interface that the service must implement.
type NoteCreator interface {
	Create(ctx context.Context, userID int64, in services.NoteInput) (*models.NoteDB, error)
}

// NewAddNoteHandler returns an HTTP handler that creates a note.
// @Summary Add a note
// @Description Creates a note for the logged-in user. The optional image (png, jpg, jpeg, gif, bmp, webp) is resized to fit 800x800.
// @Tags notes
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title, at most 200 characters"
// @Param content formData string false "Content"
// @Param image formData file false "Image"
// @Success 201 {object} handlers.Response "Note added successfully"
// @Failure 400 {object} handlers.Response "Validation error"
// @Failure 401 {object} handlers.Response "Not logged in"
// @Failure 413 {object} handlers.Response "Request body too large"
// @Failure 500 {object} handlers.Response "Internal server error"
// @Router /add_note [post]
// @Security SessionCookie
func NewAddNoteHandler(svc NoteCreator, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, closeForm, err := readNoteForm(w, r, maxBytes)
		defer closeForm()
		if err != nil {
			writeNoteError(w, r, err)
			return
		}

		note, err := svc.Create(r.Context(), identity(r).UserID, in)
		if err != nil {
			writeNoteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, Response{
			Success:  true,
			Message:  "Note added successfully",
			NoteData: newNoteData(note),
		})
	}
}
