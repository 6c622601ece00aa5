package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/avatargate/internal/dbx"
	"github.com/dmitrijs2005/avatargate/internal/server/repositories/users"
)

// RepositoryManager builds repositories over a database handle and owns the
// schema. Users accepts either *sql.DB or *sql.Tx, so services can reuse
// one manager inside and outside transactions.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
