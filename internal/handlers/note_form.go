package handlers

import (
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-notes/internal/services"
)

// DefaultMaxUploadBytes caps the body of note forms.
const DefaultMaxUploadBytes int64 = 16 << 20

const multipartMemory = 8 << 20

// readNoteForm parses the multipart (or urlencoded) note form. The returned
// closer releases the uploaded file and must always be called.
func readNoteForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (services.NoteInput, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return services.NoteInput{}, noop, err
	}

	in := services.NoteInput{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return in, cleanupForm(r), nil
	case err != nil:
		return services.NoteInput{}, cleanupForm(r), err
	}

	closer := func() {
		_ = file.Close()
		cleanupForm(r)()
	}
	if header.Filename == "" {
		return in, closer, nil
	}

	in.Image = file
	in.ImageName = header.Filename
	return in, closer, nil
}

func cleanupForm(r *http.Request) func() {
	return func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
}
