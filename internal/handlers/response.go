package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sbilibin2017/gw-notes/internal/logger"
	"github.com/sbilibin2017/gw-notes/internal/middlewares"
	"github.com/sbilibin2017/gw-notes/internal/models"
	"github.com/sbilibin2017/gw-notes/internal/services"
	"github.com/sbilibin2017/gw-notes/internal/views"
)

// Messages shared by several handlers.
const (
	msgInternalError = "Internal server error"
	msgNoteNotFound  = "Note not found"
	msgTooLarge      = "File too large. Maximum size is 16MB."
)

// Renderer renders HTML pages.
type Renderer interface {
	Render(w http.ResponseWriter, req *http.Request, status int, page string, data views.Data)
}

// NoteData is a note as returned by the JSON endpoints.
// swagger:model NoteData
type NoteData struct {
	// Note id
	// default: 1
	ID int64 `json:"id"`

	// Title
	// default: Shopping list
	Title string `json:"title"`

	// Content, empty when the note has none
	// default: Milk, eggs
	Content string `json:"content"`

	// Stored image name, null when the note has no image
	ImageFilename *string `json:"image_filename"`

	// Path the image is served from, null when the note has no image
	ImageURL *string `json:"image_url"`

	// Creation time, YYYY-MM-DD HH:MM:SS
	// default: 2024-01-02 15:04:05
	CreatedAt string `json:"created_at"`

	// Last update time, YYYY-MM-DD HH:MM:SS
	// default: 2024-01-02 15:04:05
	UpdatedAt string `json:"updated_at"`
}

// Response is the JSON envelope. Note fields, when present, sit next to
// success and message.
// swagger:model Response
type Response struct {
	// Whether the operation succeeded
	Success bool `json:"success"`

	// Human readable outcome
	// default: Note added successfully
	Message string `json:"message"`

	*NoteData
}

func newNoteData(note *models.NoteDB) *NoteData {
	data := &NoteData{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: views.FormatTime(note.CreatedAt),
		UpdatedAt: views.FormatTime(note.UpdatedAt),
	}
	if note.HasImage() {
		name := *note.ImageFilename
		imageURL := views.ImageURL(name)
		data.ImageFilename = &name
		data.ImageURL = &imageURL
	}
	return data
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Log.Errorw("failed to encode response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: false, Message: message})
}

// writeNoteError maps a note operation error onto status and envelope.
// Only messages meant for the user reach the client.
func writeNoteError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	switch v, isValidation := services.IsValidation(err); {
	case isValidation:
		writeJSONError(w, http.StatusBadRequest, v.Message)
	case errors.Is(err, services.ErrNoteNotFound):
		writeJSONError(w, http.StatusNotFound, msgNoteNotFound)
	case errors.As(err, &maxErr):
		writeJSONError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
	default:
		logger.FromContext(r.Context()).Errorw("note operation failed", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, msgInternalError)
	}
}

// identity returns the authenticated user. Protected routes always have one.
func identity(r *http.Request) *middlewares.Identity {
	id, ok := middlewares.GetIdentity(r.Context())
	if !ok {
		return &middlewares.Identity{}
	}
	return id
}

// pageData fills the layout fields of the page data.
func pageData(r *http.Request) views.Data {
	data := views.Data{}
	if id, ok := middlewares.GetIdentity(r.Context()); ok {
		data.Authenticated = true
		data.Username = id.Username
	}
	return data
}

// noteID parses the {id} route parameter.
func noteID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// safeNext returns next when it is a path on this site, otherwise "".
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return next
}
