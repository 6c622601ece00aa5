package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/avatargate/internal/common"
	"github.com/dmitrijs2005/avatargate/internal/dbx"
	"github.com/dmitrijs2005/avatargate/internal/logging"
	"github.com/dmitrijs2005/avatargate/internal/server/avatars"
	"github.com/dmitrijs2005/avatargate/internal/server/repositories/repomanager"
)

var (
	errUserNotFound   = common.WithDetail(common.ErrorNotFound, "User not found in the database")
	errAvatarNotFound = common.WithDetail(common.ErrorNotFound, "Avatar not found for the user")
	errAvatarFormat   = common.WithDetail(common.ErrorValidation,
		"Invalid file format. Only JPG, JPEG, PNG, and GIF files are allowed.")
)

// Avatar is an opened avatar ready to be streamed. Callers close Body.
type Avatar struct {
	Key         string
	ContentType string
	Body        io.ReadCloser
}

// AvatarService stores avatars and keeps the users table pointing at them.
//
// Uploads for one user are serialized twice: in-process by a per-user lock,
// and across processes by the row lock GetAvatarPathForUpdate takes. The new
// file is written only while both are held, so the path read as "previous"
// is always the one the committed row still names and never a file another
// upload has just written.
type AvatarService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       avatars.Store
	logger      logging.Logger
	locks       userLocks
}

// NewAvatarService returns a service writing avatar bytes to store and
// their keys through m.
func NewAvatarService(db *sql.DB, m repomanager.RepositoryManager, store avatars.Store, logger logging.Logger) *AvatarService {
	return &AvatarService{
		db:          db,
		repomanager: m,
		store:       store,
		logger:      logger.With("module", "avatars"),
	}
}

// Upload stores r as username's avatar and records its key. A previous
// avatar stored under a different key is removed after the new key is
// committed.
func (s *AvatarService) Upload(ctx context.Context, username, filename string, r io.Reader) (string, error) {
	if _, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", errUserNotFound
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}

	ext := common.FileExtension(filename)
	if !common.IsAllowedAvatarExtension(ext) {
		return "", errAvatarFormat
	}
	key := avatars.Key(username, ext)

	unlock, err := s.locks.lock(ctx, username)
	if err != nil {
		return "", fmt.Errorf("error waiting for avatar lock: %w", err)
	}
	defer unlock()

	var (
		previous string
		saved    bool
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		p, err := repo.GetAvatarPathForUpdate(ctx, username)
		if err != nil {
			return err
		}
		previous = p

		if err := s.store.Save(ctx, key, r); err != nil {
			return err
		}
		saved = true

		return repo.SetAvatarPath(ctx, username, key)
	})
	if err != nil {
		// the file is only ours to drop if no committed row points at it
		if saved && previous != key {
			if rmErr := s.store.Remove(ctx, key); rmErr != nil {
				s.logger.Warn(ctx, "Orphaned avatar left behind", "username", username, "key", key, "error", rmErr)
			}
		}
		if errors.Is(err, common.ErrorNotFound) {
			return "", errUserNotFound
		}
		return "", fmt.Errorf("error recording avatar: %w", err)
	}

	if previous != "" && previous != key {
		if err := s.store.Remove(ctx, previous); err != nil {
			s.logger.Warn(ctx, "Failed to remove previous avatar", "username", username, "key", previous, "error", err)
		}
	}

	s.logger.Info(ctx, "Avatar uploaded successfully", "username", username, "key", key)
	return key, nil
}

// Get opens username's current avatar.
func (s *AvatarService) Get(ctx context.Context, username string) (*Avatar, error) {
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, errAvatarNotFound
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if user.AvatarPath == "" {
		return nil, errAvatarNotFound
	}

	body, err := s.store.Open(ctx, user.AvatarPath)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "Recorded avatar missing from storage", "username", username, "key", user.AvatarPath)
			return nil, errAvatarNotFound
		}
		return nil, err
	}

	return &Avatar{
		Key:         user.AvatarPath,
		ContentType: avatars.ContentType(user.AvatarPath),
		Body:        body,
	}, nil
}
