package handlers

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/sbilibin2017/gw-notes/internal/logger"
)

//go:generate mockgen -source=uploads.go -destination=mock_uploads.go -package=handlers

// ImagePather resolves a stored image name to its file path.
type ImagePather interface {
	Path(name string) (string, error)
}

// NewUploadsHandler serves stored note images.
func NewUploadsHandler(store ImagePather, notFound http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := store.Path(chi.URLParam(r, "name"))
		if err != nil {
			notFound.ServeHTTP(w, r)
			return
		}

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			if err != nil && !os.IsNotExist(err) {
				logger.FromContext(r.Context()).Errorw("failed to stat image", "path", path, "error", err)
			}
			notFound.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Cache-Control", "private, max-age=86400")
		http.ServeFile(w, r, path)
	}
}
