package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/avatargate/internal/dbx"
	"github.com/dmitrijs2005/avatargate/internal/server/repositories/users"
)

// MemoryRepositoryManager hands out the same in-memory repositories for any
// DBTX. Migrations are a no-op.
type MemoryRepositoryManager struct {
	users *users.MemoryRepository
}

// NewMemoryRepositoryManager returns a manager whose Users ignores the handle
// it is given and always returns the same in-memory repository.
func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{users: users.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }
