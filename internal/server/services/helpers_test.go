package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/avatargate/internal/dbx"
	"github.com/dmitrijs2005/avatargate/internal/server/models"
	"github.com/dmitrijs2005/avatargate/internal/server/repositories/users"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeOpener struct {
	token string
	err   error
	calls []string
}

func (f *fakeOpener) OpenSession(_ context.Context, subject string) (string, error) {
	f.calls = append(f.calls, subject)
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

var errDB = errors.New("db down")

// brokenUsersRepo fails every call.
type brokenUsersRepo struct{}

func (brokenUsersRepo) Create(context.Context, *models.User) (*models.User, error) { return nil, errDB }
func (brokenUsersRepo) GetUserByLogin(context.Context, string) (*models.User, error) {
	return nil, errDB
}
func (brokenUsersRepo) GetAvatarPathForUpdate(context.Context, string) (string, error) {
	return "", errDB
}
func (brokenUsersRepo) SetAvatarPath(context.Context, string, string) error { return errDB }

type brokenRepoManager struct{}

func (brokenRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (brokenRepoManager) Users(dbx.DBTX) users.Repository              { return brokenUsersRepo{} }
