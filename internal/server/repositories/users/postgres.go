package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/avatargate/internal/common"
	"github.com/dmitrijs2005/avatargate/internal/dbx"
	"github.com/dmitrijs2005/avatargate/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PostgresRepository implements Repository on the users table. It runs on
// whatever DBTX it is given, so the same type serves plain calls and calls
// inside dbx.WithTx.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository returns a repository bound to db.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts user and returns it with the generated id and creation
// time. A taken username yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, password_hash)
         VALUES ($1, $2)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// GetUserByLogin loads a user by username, or common.ErrorNotFound.
func (r *PostgresRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	query :=
		`SELECT id, username, password_hash, avatar_path, created_at FROM users
		 WHERE username = $1
		 `

	var avatar sql.NullString
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, userName).
		Scan(&user.ID, &user.UserName, &user.PasswordHash, &avatar, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.AvatarPath = avatar.String

	return user, nil
}

// GetAvatarPathForUpdate returns the recorded avatar path and locks the row
// until the surrounding transaction ends. Outside a transaction the lock is
// released immediately, which makes the call an ordinary read.
func (r *PostgresRepository) GetAvatarPathForUpdate(ctx context.Context, userName string) (string, error) {
	query :=
		`SELECT avatar_path FROM users
		 WHERE username = $1
		 FOR UPDATE
		 `

	var avatar sql.NullString
	err := r.db.QueryRowContext(ctx, query, userName).Scan(&avatar)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return avatar.String, nil
}

// SetAvatarPath records path for userName. An unknown user yields
// common.ErrorNotFound.
func (r *PostgresRepository) SetAvatarPath(ctx context.Context, userName string, path string) error {
	query :=
		`UPDATE users SET avatar_path = $2
		 WHERE username = $1
		 `

	res, err := r.db.ExecContext(ctx, query, userName, path)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}
