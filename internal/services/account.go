package services

import (
	"context"
	"errors"

	"github.com/sbilibin2017/gw-notes/internal/logger"
	"github.com/sbilibin2017/gw-notes/internal/models"
	"github.com/sbilibin2017/gw-notes/internal/repositories"
)

//go:generate mockgen -source=account.go -destination=mock_account.go -package=services

// UserFinder looks a user up by username or email.
type UserFinder interface {
	GetByUsernameOrEmail(ctx context.Context, login string) (*models.UserDB, error)
}

// UserDeleter removes a user and, by cascade, the user's notes.
type UserDeleter interface {
	Delete(ctx context.Context, id int64) error
}

// ImageLister lists image files referenced by a user's notes.
type ImageLister interface {
	ListImageFilenames(ctx context.Context, userID int64) ([]string, error)
}

// ImageRemover removes a stored image file.
type ImageRemover interface {
	Remove(name string) error
}

// AccountService handles account administration.
type AccountService struct {
	finder  UserFinder
	deleter UserDeleter
	lister  ImageLister
	images  ImageRemover
}

func NewAccountService(finder UserFinder, deleter UserDeleter, lister ImageLister, images ImageRemover) *AccountService {
	return &AccountService{finder: finder, deleter: deleter, lister: lister, images: images}
}

// DeleteUser removes the user, all of the user's notes and their image files.
// Image files are removed after the rows are gone; failures there are logged.
func (s *AccountService) DeleteUser(ctx context.Context, userID int64) error {
	log := logger.FromContext(ctx)

	names, err := s.lister.ListImageFilenames(ctx, userID)
	if err != nil {
		log.Errorw("failed to list images", "user_id", userID, "err", err)
		return storageError("list images", err)
	}

	if err := s.deleter.Delete(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		log.Errorw("failed to delete user", "user_id", userID, "err", err)
		return storageError("delete user", err)
	}

	for _, name := range names {
		if err := s.images.Remove(name); err != nil {
			log.Warnw("failed to remove image", "user_id", userID, "name", name, "err", err)
		}
	}

	log.Infow("user deleted", "user_id", userID, "images", len(names))
	return nil
}

// DeleteUserByLogin resolves a username or email and deletes that user.
func (s *AccountService) DeleteUserByLogin(ctx context.Context, login string) (*models.UserDB, error) {
	user, err := s.finder.GetByUsernameOrEmail(ctx, login)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageError("get user", err)
	}

	if err := s.DeleteUser(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}
