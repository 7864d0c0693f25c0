package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-notes/internal/flash"
	"github.com/sbilibin2017/gw-notes/internal/jwt"
	"github.com/sbilibin2017/gw-notes/internal/logger"
)

//go:generate mockgen -source=logout.go -destination=mock_logout.go -package=handlers

// LogoutService defines the interface that the service must implement.
type LogoutService interface {
	Logout(ctx context.Context, claims *jwt.Claims) error
}

// NewLogoutHandler ends the session and returns to the landing page.
// The cookie is cleared even when the revocation could not be stored.
func NewLogoutHandler(svc LogoutService, cookies SessionCookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := identity(r)
		if id.Claims != nil {
			if err := svc.Logout(r.Context(), id.Claims); err != nil {
				logger.FromContext(r.Context()).Errorw("failed to revoke session", "user_id", id.UserID, "error", err)
			}
		}

		http.SetCookie(w, cookies.ExpiredCookie())
		flash.Add(w, flash.Info, "You have been logged out successfully.")
		http.Redirect(w, r, "/", http.StatusFound)
	}
}
