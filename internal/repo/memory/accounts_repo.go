package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/eventrest/internal/domain/account"
)

type AccountsRepo struct {
	mu      sync.RWMutex
	byEmail map[string]account.Account
}

func NewAccountsRepo() *AccountsRepo {
	return &AccountsRepo{byEmail: make(map[string]account.Account)}
}

func (r *AccountsRepo) Create(ctx context.Context, a account.Account) (account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[a.Email]; ok {
		return account.Account{}, account.ErrEmailAlreadyUsed
	}
	r.byEmail[a.Email] = a

	return a, nil
}

func (r *AccountsRepo) GetByEmail(ctx context.Context, email string) (account.Account, error) {
	r.mu.RLock()
	a, ok := r.byEmail[email]
	r.mu.RUnlock()

	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}
