package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/sbilibin2017/gw-notes/internal/flash"
	"github.com/sbilibin2017/gw-notes/internal/jwt"
	"github.com/sbilibin2017/gw-notes/internal/logger"
	"github.com/sbilibin2017/gw-notes/internal/models"
	"github.com/sbilibin2017/gw-notes/internal/repositories"
)

//go:generate mockgen -source=auth.go -destination=mock_auth.go -package=middlewares

// LoginRequiredMessage is shown to anonymous users hitting a protected route.
const LoginRequiredMessage = "Please log in to access this page."

// Tokener defines the session token operations needed by the middleware.
type Tokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
	Renew(ctx context.Context, claims *jwt.Claims) (string, *jwt.Claims, error)
	NewCookie(token string, claims *jwt.Claims) *http.Cookie
	ExpiredCookie() *http.Cookie
}

// RevocationChecker reports whether a session was logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// UserGetter loads the user a session belongs to.
type UserGetter interface {
	GetByID(ctx context.Context, id int64) (*models.UserDB, error)
}

// Identity is the authenticated user of a request.
type Identity struct {
	UserID   int64
	Username string
	Claims   *jwt.Claims
}

type identityKey struct{}

// WithIdentity stores the identity in the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// GetIdentity returns the authenticated identity, or false for anonymous requests.
func GetIdentity(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}

// SessionMiddleware resolves the session cookie into an Identity. It never
// rejects a request: missing, invalid, revoked or orphaned sessions leave
// the request anonymous and clear the cookie. Valid sessions are re-issued
// with a fresh expiry.
func SessionMiddleware(tokener Tokener, revoked RevocationChecker, users UserGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.FromContext(ctx)

			tokenString, err := tokener.GetTokenFromRequest(ctx, r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := resolveIdentity(ctx, tokener, revoked, users, tokenString)
			if err != nil {
				log.Infow("session rejected", "err", err)
				http.SetCookie(w, tokener.ExpiredCookie())
				next.ServeHTTP(w, r)
				return
			}

			token, claims, err := tokener.Renew(ctx, identity.Claims)
			if err != nil {
				log.Errorw("failed to renew session", "user_id", identity.UserID, "err", err)
			} else {
				identity.Claims = claims
				http.SetCookie(w, tokener.NewCookie(token, claims))
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
		})
	}
}

var errSessionRevoked = errors.New("session revoked")

func resolveIdentity(
	ctx context.Context,
	tokener Tokener,
	revoked RevocationChecker,
	users UserGetter,
	tokenString string,
) (*Identity, error) {
	claims, err := tokener.GetClaims(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	isRevoked, err := revoked.IsRevoked(ctx, claims.SessionID())
	if err != nil {
		return nil, err
	}
	if isRevoked {
		return nil, errSessionRevoked
	}

	user, err := users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errors.New("session user no longer exists")
		}
		return nil, err
	}

	return &Identity{UserID: user.ID, Username: user.Username, Claims: claims}, nil
}

// RequireLogin redirects anonymous requests to the login page, remembering
// the original path and query in "next".
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetIdentity(r.Context()); !ok {
			flash.Add(w, flash.Info, LoginRequiredMessage)
			target := "/login?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireLoginJSON answers anonymous requests with 401 and the JSON envelope.
func RequireLoginJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetIdentity(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"message": LoginRequiredMessage,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
