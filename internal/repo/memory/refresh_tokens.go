package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/eventrest/internal/domain/account"
)

type RefreshTokensRepo struct {
	mu   sync.Mutex
	rows map[string]account.RefreshToken
}

func NewRefreshTokensRepo() *RefreshTokensRepo {
	return &RefreshTokensRepo{rows: make(map[string]account.RefreshToken)}
}

func (r *RefreshTokensRepo) Create(ctx context.Context, row account.RefreshToken) error {
	r.mu.Lock()
	r.rows[row.ID] = row
	r.mu.Unlock()
	return nil
}

// Rotate revokes id and stores next in one critical section.
func (r *RefreshTokensRepo) Rotate(ctx context.Context, id, presentedHash string, next account.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.rows[id]
	if !ok {
		return account.ErrRefreshTokenInvalid
	}

	now := time.Now().UTC()
	if err := cur.CheckRotatable(next.AccountID, presentedHash, now); err != nil {
		return err
	}

	cur.RevokedAt = &now
	cur.ReplacedBy = &next.ID
	r.rows[id] = cur
	r.rows[next.ID] = next

	return nil
}

func (r *RefreshTokensRepo) Revoke(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.rows[id]
	if !ok || cur.RevokedAt != nil {
		return nil
	}
	now := time.Now().UTC()
	cur.RevokedAt = &now
	r.rows[id] = cur
	return nil
}
