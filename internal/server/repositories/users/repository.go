// Package users holds the credential store: users, their bcrypt hashes and
// the storage key of their avatar.
package users

import (
	"context"

	"github.com/dmitrijs2005/avatargate/internal/server/models"
)

// Repository is the credential store. Every implementation reports a
// missing user as common.ErrorNotFound and a taken username as
// common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	// GetAvatarPathForUpdate locks the user's row until the surrounding
	// transaction ends and returns the recorded avatar path ("" when none).
	GetAvatarPathForUpdate(ctx context.Context, login string) (string, error)
	SetAvatarPath(ctx context.Context, login string, path string) error
}
