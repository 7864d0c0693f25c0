package jwt

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

const (
	DefaultExpiration         = 30 * time.Minute
	DefaultRememberExpiration = 30 * 24 * time.Hour
)

var (
	ErrTokenMissing = errors.New("session token missing")
	ErrInvalidToken = errors.New("invalid session token")
)

// Claims are the session claims carried by the signed token.
type Claims struct {
	UserID   int64 `json:"user_id"`
	Remember bool  `json:"remember,omitempty"`
	jwt.RegisteredClaims
}

// SessionID returns the unique session identifier (the jti claim).
func (c *Claims) SessionID() string {
	return c.ID
}

// ExpiresAtTime returns the expiry of the token, or the zero time.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// JWT issues and validates signed session tokens.
type JWT struct {
	secretKey   string        // Secret key for signing tokens
	exp         time.Duration // Inactivity window of a regular session
	rememberExp time.Duration // Lifetime of a "remember me" session
	secure      bool          // Mark cookies Secure
}

// Opt configures a JWT.
type Opt func(*JWT)

func WithSecretKey(secret string) Opt {
	return func(j *JWT) { j.secretKey = secret }
}

func WithExpiration(d time.Duration) Opt {
	return func(j *JWT) { j.exp = d }
}

func WithRememberExpiration(d time.Duration) Opt {
	return func(j *JWT) { j.rememberExp = d }
}

func WithSecureCookie(secure bool) Opt {
	return func(j *JWT) { j.secure = secure }
}

// New creates a new JWT instance
func New(opts ...Opt) *JWT {
	j := &JWT{
		exp:         DefaultExpiration,
		rememberExp: DefaultRememberExpiration,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Generate starts a new session for the user and returns its signed token.
func (j *JWT) Generate(ctx context.Context, userID int64, remember bool) (string, *Claims, error) {
	claims := &Claims{
		UserID:   userID,
		Remember: remember,
		RegisteredClaims: jwt.RegisteredClaims{
			ID: uuid.NewString(),
		},
	}
	return j.sign(claims)
}

// Renew re-signs an existing session with a fresh expiry, keeping its id.
func (j *JWT) Renew(ctx context.Context, claims *Claims) (string, *Claims, error) {
	renewed := &Claims{
		UserID:   claims.UserID,
		Remember: claims.Remember,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       claims.ID,
			IssuedAt: claims.IssuedAt,
		},
	}
	return j.sign(renewed)
}

func (j *JWT) sign(claims *Claims) (string, *Claims, error) {
	now := time.Now()
	lifetime := j.exp
	if claims.Remember {
		lifetime = j.rememberExp
	}
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(now)
	}
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(lifetime))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// GetClaims parses the token string and returns its claims if valid
func (j *JWT) GetClaims(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID <= 0 || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GetTokenFromRequest extracts the token from the session cookie, falling
// back to a Bearer Authorization header.
func (j *JWT) GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrTokenMissing
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}

// NewCookie builds the session cookie for a signed token. Regular sessions
// get a browser-session cookie; "remember me" sessions persist until expiry.
func (j *JWT) NewCookie(token string, claims *Claims) *http.Cookie {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if claims.Remember {
		cookie.Expires = claims.ExpiresAtTime()
		cookie.MaxAge = int(time.Until(cookie.Expires).Seconds())
	}
	return cookie
}

// ExpiredCookie returns a cookie that clears the session in the browser.
func (j *JWT) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
