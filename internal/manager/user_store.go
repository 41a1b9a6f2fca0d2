package manager

import (
	"context"
	"errors"
	"strings"

	"sentinel/internal/db"
	"sentinel/internal/models"
)

var (
	ErrUserNotFound = db.ErrNotFound
	ErrUserExists   = db.ErrDuplicate
)

// UserStore manages accounts persisted in the user database.
type UserStore struct {
	repo *db.Repository
}

// NewUserStore wraps a repository.
func NewUserStore(repo *db.Repository) *UserStore {
	return &UserStore{repo: repo}
}

// Get returns the user with the exact username.
func (s *UserStore) Get(ctx context.Context, username string) (*models.User, bool) {
	u, err := s.repo.UserByUsername(ctx, username)
	if err != nil {
		return nil, false
	}
	return u, true
}

// Lookup resolves login as a username first, then as an email address.
func (s *UserStore) Lookup(ctx context.Context, login string) (*models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, ErrUserNotFound
	}
	u, err := s.repo.UserByUsername(ctx, login)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	return s.repo.UserByEmail(ctx, login)
}

// CreateUser stores a new active account with a pre-hashed password.
func (s *UserStore) CreateUser(ctx context.Context, in models.UserCreate, passwordHash string, superuser bool) (*models.User, error) {
	if strings.TrimSpace(in.Username) == "" || passwordHash == "" {
		return nil, errors.New("username and password hash required")
	}
	if _, err := s.repo.UserByEmail(ctx, in.Email); err == nil {
		return nil, ErrUserExists
	}
	u := &models.User{
		Email:          strings.TrimSpace(in.Email),
		Username:       strings.TrimSpace(in.Username),
		FullName:       strings.TrimSpace(in.FullName),
		HashedPassword: passwordHash,
		IsActive:       true,
		IsSuperuser:    superuser,
	}
	if err := s.repo.InsertUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword updates the password hash for a user.
func (s *UserStore) SetPassword(ctx context.Context, username, passwordHash string) error {
	return s.repo.SetPassword(ctx, username, passwordHash)
}

// IsEmpty reports whether no users exist.
func (s *UserStore) IsEmpty(ctx context.Context) bool {
	n, err := s.repo.CountUsers(ctx)
	return err == nil && n == 0
}

// Users returns every stored account.
func (s *UserStore) Users(ctx context.Context) ([]models.User, error) {
	return s.repo.ListUsers(ctx)
}

// EnsureAdmin creates the bootstrap superuser unless an account with the same
// username or email already exists. hash is only called when creating.
func (s *UserStore) EnsureAdmin(ctx context.Context, username, email, password string, hash func(string) (string, error)) (bool, error) {
	if _, err := s.Lookup(ctx, username); err == nil {
		return false, nil
	}
	if _, err := s.Lookup(ctx, email); err == nil {
		return false, nil
	}
	hashed, err := hash(password)
	if err != nil {
		return false, err
	}
	_, err = s.CreateUser(ctx, models.UserCreate{Email: email, Username: username, FullName: "Administrator"}, hashed, true)
	if errors.Is(err, ErrUserExists) {
		return false, nil
	}
	return err == nil, err
}
