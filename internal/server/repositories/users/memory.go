package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/avatargate/internal/common"
	"github.com/dmitrijs2005/avatargate/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository is a Repository kept in process memory. It backs tests
// that exercise services and handlers without PostgreSQL. Row locks are not
// modelled; each call is atomic on its own.
type MemoryRepository struct {
	mu    sync.Mutex
	users map[string]models.User
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: map[string]models.User{}}
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	r.users[user.UserName] = *user
	return user, nil
}

func (r *MemoryRepository) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

// GetAvatarPathForUpdate reads the avatar path. There are no row locks in
// memory; callers serialize updates themselves.
func (r *MemoryRepository) GetAvatarPathForUpdate(_ context.Context, login string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[login]
	if !ok {
		return "", common.ErrorNotFound
	}
	return u.AvatarPath, nil
}

func (r *MemoryRepository) SetAvatarPath(_ context.Context, login string, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[login]
	if !ok {
		return common.ErrorNotFound
	}
	u.AvatarPath = path
	r.users[login] = u
	return nil
}
