package handlers

import (
	"context"
	"net/http"
)

//go:generate mockgen -source=delete_note.go -destination=mock_delete_note.go -package=handlers

// NoteDeleter defines the interface that the service must implement.
type NoteDeleter interface {
	Delete(ctx context.Context, userID, noteID int64) error
}

// NewDeleteNoteHandler returns an HTTP handler that deletes a note and its image.
// @Summary Delete a note
// @Description Deletes a note of the logged-in user together with its image file.
// @Tags notes
// @Produce json
// @Param id path int true "Note id"
// @Success 200 {object} handlers.Response "Note deleted successfully"
// @Failure 401 {object} handlers.Response "Not logged in"
// @Failure 404 {object} handlers.Response "Note not found"
// @Failure 500 {object} handlers.Response "Internal server error"
// @Router /delete_note/{id} [post]
// @Security SessionCookie
func NewDeleteNoteHandler(svc NoteDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := noteID(r)
		if !ok {
			writeJSONError(w, http.StatusNotFound, msgNoteNotFound)
			return
		}

		if err := svc.Delete(r.Context(), identity(r).UserID, id); err != nil {
			writeNoteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, Response{Success: true, Message: "Note deleted successfully"})
	}
}
