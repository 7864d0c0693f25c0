package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sbilibin2017/gw-notes/internal/jwt"
	"github.com/sbilibin2017/gw-notes/internal/logger"
	"github.com/sbilibin2017/gw-notes/internal/models"
	"github.com/sbilibin2017/gw-notes/internal/password"
	"github.com/sbilibin2017/gw-notes/internal/repositories"
)

//go:generate mockgen -source=auth.go -destination=mock_auth.go -package=services

const (
	minUsernameLength = 3
	maxUsernameLength = 80
	maxEmailLength    = 120
	minPasswordLength = 6
	maxPasswordBytes  = 72 // bcrypt input limit
)

// UserReader defines read-only operations for users.
type UserReader interface {
	GetByUsernameOrEmail(ctx context.Context, login string) (*models.UserDB, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Save(ctx context.Context, username, email, passwordHash string) (int64, error)
}

// SessionIssuer starts signed sessions.
type SessionIssuer interface {
	Generate(ctx context.Context, userID int64, remember bool) (string, *jwt.Claims, error)
}

// SessionRevoker invalidates sessions before they expire.
type SessionRevoker interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Session is the result of a successful login.
type Session struct {
	Token    string
	Claims   *jwt.Claims
	Username string
}

// AuthService handles registration, login and logout.
type AuthService struct {
	reader   UserReader
	writer   UserWriter
	sessions SessionIssuer
	revoker  SessionRevoker
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(reader UserReader, writer UserWriter, sessions SessionIssuer, revoker SessionRevoker) *AuthService {
	return &AuthService{
		reader:   reader,
		writer:   writer,
		sessions: sessions,
		revoker:  revoker,
	}
}

func validateRegistration(in *RegisterInput) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	switch {
	case utf8.RuneCountInString(in.Username) < minUsernameLength:
		return newValidationError("Username must be at least 3 characters long.")
	case utf8.RuneCountInString(in.Username) > maxUsernameLength:
		return newValidationError("Username must be at most 80 characters long.")
	case in.Email == "" || !strings.Contains(in.Email, "@"):
		return newValidationError("Please enter a valid email address.")
	case utf8.RuneCountInString(in.Email) > maxEmailLength:
		return newValidationError("Email must be at most 120 characters long.")
	case len(in.Password) < minPasswordLength:
		return newValidationError("Password must be at least 6 characters long.")
	case len(in.Password) > maxPasswordBytes:
		return newValidationError("Password must be at most 72 characters long.")
	case in.Password != in.ConfirmPassword:
		return newValidationError("Passwords do not match.")
	}
	return nil
}

// Register validates the form and creates a new user, returning its id.
func (svc *AuthService) Register(ctx context.Context, in RegisterInput) (int64, error) {
	log := logger.FromContext(ctx)

	if err := validateRegistration(&in); err != nil {
		log.Infow("registration rejected", "username", in.Username, "reason", err)
		return 0, err
	}

	taken, err := svc.reader.ExistsByUsername(ctx, in.Username)
	if err != nil {
		log.Errorw("failed to check username", "err", err)
		return 0, storageError("check username", err)
	}
	if taken {
		log.Infow("username already exists", "username", in.Username)
		return 0, ErrUsernameTaken
	}

	taken, err = svc.reader.ExistsByEmail(ctx, in.Email)
	if err != nil {
		log.Errorw("failed to check email", "err", err)
		return 0, storageError("check email", err)
	}
	if taken {
		log.Infow("email already exists", "email", in.Email)
		return 0, ErrEmailTaken
	}

	hashedPassword, err := password.Hash(in.Password)
	if err != nil {
		log.Errorw("failed to hash password", "err", err)
		return 0, err
	}

	id, err := svc.writer.Save(ctx, in.Username, in.Email, hashedPassword)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateEntry) {
			log.Infow("user already exists", "username", in.Username, "email", in.Email)
			return 0, ErrUserAlreadyExists
		}
		log.Errorw("failed to save user", "err", err)
		return 0, storageError("save user", err)
	}

	log.Infow("user registered", "user_id", id, "username", in.Username)
	return id, nil
}

// Login authenticates a user by username or email and starts a session.
func (svc *AuthService) Login(ctx context.Context, login, pass string, remember bool) (*Session, error) {
	log := logger.FromContext(ctx)
	login = strings.TrimSpace(login)

	if login == "" || pass == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := svc.reader.GetByUsernameOrEmail(ctx, login)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Infow("login for unknown user", "login", login)
			return nil, ErrInvalidCredentials
		}
		log.Errorw("failed to get user", "err", err)
		return nil, storageError("get user", err)
	}

	if !password.Verify(user.PasswordHash, pass) {
		log.Infow("invalid credentials", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	token, claims, err := svc.sessions.Generate(ctx, user.ID, remember)
	if err != nil {
		log.Errorw("failed to generate session", "err", err)
		return nil, err
	}

	log.Infow("user logged in", "user_id", user.ID, "remember", remember)
	return &Session{Token: token, Claims: claims, Username: user.Username}, nil
}

// Logout revokes the session for the rest of its lifetime.
func (svc *AuthService) Logout(ctx context.Context, claims *jwt.Claims) error {
	ttl := time.Until(claims.ExpiresAtTime())
	if err := svc.revoker.Revoke(ctx, claims.SessionID(), ttl); err != nil {
		logger.FromContext(ctx).Errorw("failed to revoke session", "user_id", claims.UserID, "err", err)
		return storageError("revoke session", err)
	}
	logger.FromContext(ctx).Infow("user logged out", "user_id", claims.UserID)
	return nil
}
