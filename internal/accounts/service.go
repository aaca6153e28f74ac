package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/eventrest/internal/domain/account"
	"github.com/geocoder89/eventrest/internal/security"
	"github.com/google/uuid"
)

var ErrBadCredentials = errors.New("bad credentials")

type Store interface {
	Create(ctx context.Context, a account.Account) (account.Account, error)
	GetByEmail(ctx context.Context, email string) (account.Account, error)
}

type Service struct {
	store Store
	hash  func(plain string) (string, error)
}

func NewService(store Store) *Service {
	return &Service{store: store, hash: security.HashPassword}
}

// WithHasher swaps the password hasher, mostly so tests can use a cheap bcrypt cost.
func (s *Service) WithHasher(hash func(plain string) (string, error)) *Service {
	s.hash = hash
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Save hashes the password and stores a new account.
func (s *Service) Save(ctx context.Context, email, password string, roles ...account.Role) (account.Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return account.Account{}, errors.New("email and password are required")
	}

	hash, err := s.hash(password)
	if err != nil {
		return account.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()

	return s.store.Create(ctx, account.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// LoadByEmail returns an error wrapping account.ErrNotFound that names the
// missing email.
func (s *Service) LoadByEmail(ctx context.Context, email string) (account.Account, error) {
	a, err := s.store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return account.Account{}, fmt.Errorf("%w: %s", account.ErrNotFound, email)
		}
		return account.Account{}, err
	}
	return a, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (account.Account, error) {
	a, err := s.LoadByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return account.Account{}, ErrBadCredentials
		}
		return account.Account{}, err
	}

	if err := security.CheckPassword(a.PasswordHash, password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return account.Account{}, ErrBadCredentials
		}
		return account.Account{}, err
	}

	return a, nil
}

// Ensure creates the account unless one with the email already exists.
func (s *Service) Ensure(ctx context.Context, email, password string, roles ...account.Role) error {
	if email == "" || password == "" {
		return nil
	}

	_, err := s.store.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, account.ErrNotFound) {
		return err
	}

	_, err = s.Save(ctx, email, password, roles...)
	if errors.Is(err, account.ErrEmailAlreadyUsed) {
		return nil
	}
	return err
}
