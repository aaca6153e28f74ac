package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/eventrest/internal/domain/account"
	"github.com/geocoder89/eventrest/internal/repo/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshTokensRepo_Rotate(t *testing.T) {
	r := memory.NewRefreshTokensRepo()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, r.Create(ctx, account.RefreshToken{
		ID: "old", AccountID: "acc-1", TokenHash: "h1", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))

	next := account.RefreshToken{ID: "new", AccountID: "acc-1", TokenHash: "h2", ExpiresAt: now.Add(time.Hour), CreatedAt: now}

	assert.ErrorIs(t, r.Rotate(ctx, "old", "wrong", next), account.ErrRefreshTokenInvalid)
	require.NoError(t, r.Rotate(ctx, "old", "h1", next))

	// the old token cannot be replayed
	assert.ErrorIs(t, r.Rotate(ctx, "old", "h1", next), account.ErrRefreshTokenInvalid)
	assert.ErrorIs(t, r.Rotate(ctx, "missing", "h1", next), account.ErrRefreshTokenInvalid)

	third := account.RefreshToken{ID: "third", AccountID: "acc-1", TokenHash: "h3", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, r.Rotate(ctx, "new", "h2", third))

	require.NoError(t, r.Revoke(ctx, "third"))
	assert.ErrorIs(t, r.Rotate(ctx, "third", "h3", account.RefreshToken{ID: "x", AccountID: "acc-1"}), account.ErrRefreshTokenInvalid)
}
