// Package services contains server-side business logic. UserService
// registers accounts and logs users in; AvatarService stores and serves
// their avatars.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/avatargate/internal/common"
	"github.com/dmitrijs2005/avatargate/internal/logging"
	"github.com/dmitrijs2005/avatargate/internal/server/auth"
	"github.com/dmitrijs2005/avatargate/internal/server/models"
	"github.com/dmitrijs2005/avatargate/internal/server/repositories/repomanager"
)

var (
	errUserExists         = common.WithDetail(common.ErrorAlreadyExists, "User already exists")
	errInvalidCredentials = common.WithDetail(common.ErrorUnauthorized, "Invalid credentials")
)

// SessionOpener mints a token and makes it the subject's only session.
type SessionOpener interface {
	OpenSession(ctx context.Context, subject string) (string, error)
}

// UserService registers users and logs them in.
//
// Credentials are checked against the users repository; a successful login
// hands the username to a SessionOpener, which mints the access token and
// replaces any session the user had before.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	sessions    SessionOpener
	logger      logging.Logger
}

// NewUserService wires the service. db is passed to m to obtain repositories.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.PasswordHasher,
	sessions SessionOpener, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		sessions:    sessions,
		logger:      logger.With("module", "users"),
	}
}

// Signup validates the credentials and stores a new user with a bcrypt hash
// of password.
func (s *UserService) Signup(ctx context.Context, username, password string) (*models.User, error) {
	if err := auth.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, &models.User{UserName: username, PasswordHash: []byte(hash)})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.logger.Warn(ctx, "Signup for existing user", "username", username)
			return nil, errUserExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "User registered successfully", "username", username)
	return u, nil
}

// Login checks the password and opens a new session, replacing any session
// the user already had. Unknown users and wrong passwords fail the same way.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.CompareDummy(password)
			s.logger.Warn(ctx, "Login for unknown user", "username", username)
			return "", errInvalidCredentials
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}

	if err := s.hasher.Compare(string(user.PasswordHash), password); err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.logger.Warn(ctx, "Login with wrong password", "username", username)
			return "", errInvalidCredentials
		}
		return "", err
	}

	token, err := s.sessions.OpenSession(ctx, username)
	if err != nil {
		return "", err
	}

	s.logger.Info(ctx, "User logged in successfully", "username", username)
	return token, nil
}
