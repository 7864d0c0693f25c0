// Package views renders the HTML pages from embedded templates.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/sbilibin2017/gw-notes/internal/flash"
	"github.com/sbilibin2017/gw-notes/internal/logger"
	"github.com/sbilibin2017/gw-notes/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Page names.
const (
	IndexPage    = "index.html"
	RegisterPage = "register.html"
	LoginPage    = "login.html"
	NotesPage    = "notes.html"
	NotFoundPage = "404.html"
	ErrorPage    = "500.html"
)

// TimeLayout is the display format of note timestamps.
const TimeLayout = "2006-01-02 15:04:05"

// Data is passed to every template.
type Data struct {
	Authenticated bool
	Username      string
	Flashes       []flash.Message
	Form          map[string]string
	Notes         *models.NotesPage
}

// Renderer executes page templates, each one layered over the base layout.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"formatTime": FormatTime,
	"imageURL": func(name *string) string {
		if name == nil {
			return ""
		}
		return ImageURL(*name)
	},
	"truncate": func(s string, n int) string {
		if utf8.RuneCountInString(s) <= n {
			return s
		}
		return string([]rune(s)[:n]) + "..."
	},
}

// New parses all page templates.
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, page := range []string{IndexPage, RegisterPage, LoginPage, NotesPage, NotFoundPage, ErrorPage} {
		t, err := template.New(page).Funcs(funcs).ParseFS(templatesFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// Render writes the page with status. Flash messages queued by an earlier
// response are shown before the ones in data.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, page string, data Data) {
	t, ok := r.pages[page]
	if !ok {
		logger.FromContext(req.Context()).Errorw("unknown template", "page", page)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data.Flashes = append(flash.Pop(w, req), data.Flashes...)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		logger.FromContext(req.Context()).Errorw("failed to render template", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// FormatTime formats a timestamp as "YYYY-MM-DD HH:MM:SS".
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// ImageURL is the path a stored image is served from.
func ImageURL(name string) string {
	return "/uploads/" + name
}
