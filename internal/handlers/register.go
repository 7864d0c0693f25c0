package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-notes/internal/flash"
	"github.com/sbilibin2017/gw-notes/internal/logger"
	"github.com/sbilibin2017/gw-notes/internal/middlewares"
	"github.com/sbilibin2017/gw-notes/internal/services"
	"github.com/sbilibin2017/gw-notes/internal/views"
)

//go:generate mockgen -source=register.go -destination=mock_register.go -package=handlers

// Registerer defines the interface that the service must implement.
type Registerer interface {
	Register(ctx context.Context, in services.RegisterInput) (int64, error)
}

// NewRegisterPageHandler renders the registration form.
func NewRegisterPageHandler(renderer Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middlewares.GetIdentity(r.Context()); ok {
			http.Redirect(w, r, "/notes", http.StatusFound)
			return
		}
		renderer.Render(w, r, http.StatusOK, views.RegisterPage, pageData(r))
	}
}

// NewRegisterHandler handles the registration form. Failures re-render the
// form with the entered username and email; success redirects to the login page.
func NewRegisterHandler(svc Registerer, renderer Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middlewares.GetIdentity(r.Context()); ok {
			http.Redirect(w, r, "/notes", http.StatusFound)
			return
		}

		in := services.RegisterInput{
			Username:        r.PostFormValue("username"),
			Email:           r.PostFormValue("email"),
			Password:        r.PostFormValue("password"),
			ConfirmPassword: r.PostFormValue("confirm_password"),
		}

		_, err := svc.Register(r.Context(), in)
		if err == nil {
			flash.Add(w, flash.Success, "Registration successful! You can now log in.")
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		status, message := registerFailure(r, err)

		data := pageData(r)
		data.Form = map[string]string{"username": in.Username, "email": in.Email}
		data.Flashes = []flash.Message{{Category: flash.Danger, Text: message}}
		renderer.Render(w, r, status, views.RegisterPage, data)
	}
}

func registerFailure(r *http.Request, err error) (int, string) {
	if v, ok := services.IsValidation(err); ok {
		return http.StatusBadRequest, v.Message
	}
	switch {
	case errors.Is(err, services.ErrUsernameTaken):
		return http.StatusConflict, "Username already exists. Please choose a different one."
	case errors.Is(err, services.ErrEmailTaken):
		return http.StatusConflict, "Email already registered. Please use a different email or login."
	case errors.Is(err, services.ErrUserAlreadyExists):
		return http.StatusConflict, "Username or email already exists."
	default:
		logger.FromContext(r.Context()).Errorw("registration failed", "error", err)
		return http.StatusInternalServerError, "Registration failed. Please try again."
	}
}
