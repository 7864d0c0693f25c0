package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-notes/internal/flash"
	"github.com/sbilibin2017/gw-notes/internal/jwt"
	"github.com/sbilibin2017/gw-notes/internal/logger"
	"github.com/sbilibin2017/gw-notes/internal/middlewares"
	"github.com/sbilibin2017/gw-notes/internal/services"
	"github.com/sbilibin2017/gw-notes/internal/views"
)

//go:generate mockgen -source=login.go -destination=mock_login.go -package=handlers

// LoginService defines the interface that the service must implement.
type LoginService interface {
	Login(ctx context.Context, login, password string, remember bool) (*services.Session, error)
}

// SessionCookies builds the session cookies.
type SessionCookies interface {
	NewCookie(token string, claims *jwt.Claims) *http.Cookie
	ExpiredCookie() *http.Cookie
}

// NewLoginPageHandler renders the login form.
func NewLoginPageHandler(renderer Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middlewares.GetIdentity(r.Context()); ok {
			http.Redirect(w, r, "/notes", http.StatusFound)
			return
		}
		data := pageData(r)
		data.Form = map[string]string{"next": safeNext(r.URL.Query().Get("next"))}
		renderer.Render(w, r, http.StatusOK, views.LoginPage, data)
	}
}

// NewLoginHandler handles the login form. On success the session cookie is
// set and the user is sent to "next" (local paths only) or to the notes page.
func NewLoginHandler(svc LoginService, cookies SessionCookies, renderer Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middlewares.GetIdentity(r.Context()); ok {
			http.Redirect(w, r, "/notes", http.StatusFound)
			return
		}

		login := r.PostFormValue("username_or_email")
		if login == "" {
			login = r.PostFormValue("username")
		}
		password := r.PostFormValue("password")
		remember := isChecked(r.PostFormValue("remember"))

		next := r.URL.Query().Get("next")
		if next == "" {
			next = r.PostFormValue("next")
		}
		next = safeNext(next)

		session, err := svc.Login(r.Context(), login, password, remember)
		if err != nil {
			status, message := http.StatusUnauthorized, "Invalid username or password."
			if !errors.Is(err, services.ErrInvalidCredentials) {
				logger.FromContext(r.Context()).Errorw("login failed", "error", err)
				status, message = http.StatusInternalServerError, "Login failed. Please try again."
			}

			data := pageData(r)
			data.Form = map[string]string{"username_or_email": login, "next": next}
			data.Flashes = []flash.Message{{Category: flash.Danger, Text: message}}
			renderer.Render(w, r, status, views.LoginPage, data)
			return
		}

		http.SetCookie(w, cookies.NewCookie(session.Token, session.Claims))
		flash.Add(w, flash.Success, "Welcome back, "+session.Username+"!")

		if next == "" {
			next = "/notes"
		}
		http.Redirect(w, r, next, http.StatusFound)
	}
}

func isChecked(v string) bool {
	switch v {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}
