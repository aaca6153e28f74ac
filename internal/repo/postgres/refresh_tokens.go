package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/eventrest/internal/domain/account"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RefreshTokensRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewRefreshTokensRepo(pool *pgxpool.Pool, obs DBObserver) *RefreshTokensRepo {
	return &RefreshTokensRepo{pool: pool, obs: observerOrNoop(obs)}
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertRefreshToken(ctx context.Context, q execer, row account.RefreshToken) error {
	_, err := q.Exec(ctx,
		`INSERT INTO refresh_tokens (id, account_id, token_hash, expires_at, revoked_at, replaced_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		row.ID, row.AccountID, row.TokenHash, row.ExpiresAt, row.RevokedAt, row.ReplacedBy, row.CreatedAt,
	)
	return err
}

func (r *RefreshTokensRepo) Create(ctx context.Context, row account.RefreshToken) error {
	return r.obs.ObserveDB("refresh_tokens.create", func() error {
		return insertRefreshToken(ctx, r.pool, row)
	})
}

// Rotate locks the presented token row, checks it is still usable, revokes it
// and stores next, all in one transaction so concurrent refreshes cannot both win.
func (r *RefreshTokensRepo) Rotate(ctx context.Context, id, presentedHash string, next account.RefreshToken) error {
	return r.obs.ObserveDB("refresh_tokens.rotate", func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		cur, err := getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := cur.CheckRotatable(next.AccountID, presentedHash, now); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE refresh_tokens SET revoked_at = $2, replaced_by = $3 WHERE id = $1`,
			id, now, next.ID,
		)
		if err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}

		if err := insertRefreshToken(ctx, tx, next); err != nil {
			return fmt.Errorf("insert refresh token: %w", err)
		}

		return tx.Commit(ctx)
	})
}

func getForUpdate(ctx context.Context, tx pgx.Tx, id string) (account.RefreshToken, error) {
	var row account.RefreshToken

	err := tx.QueryRow(ctx, `
		SELECT id, account_id, token_hash, expires_at, revoked_at, replaced_by, created_at
		FROM refresh_tokens
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(
		&row.ID,
		&row.AccountID,
		&row.TokenHash,
		&row.ExpiresAt,
		&row.RevokedAt,
		&row.ReplacedBy,
		&row.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.RefreshToken{}, account.ErrRefreshTokenInvalid
		}
		return account.RefreshToken{}, err
	}

	return row, nil
}

// Revoke is idempotent.
func (r *RefreshTokensRepo) Revoke(ctx context.Context, id string) error {
	return r.obs.ObserveDB("refresh_tokens.revoke", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE refresh_tokens
			SET revoked_at = NOW()
			WHERE id = $1 AND revoked_at IS NULL
		`, id)
		return err
	})
}
