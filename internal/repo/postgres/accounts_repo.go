package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/eventrest/internal/domain/account"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountsRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewAccountsRepo(pool *pgxpool.Pool, obs DBObserver) *AccountsRepo {
	return &AccountsRepo{pool: pool, obs: observerOrNoop(obs)}
}

func (r *AccountsRepo) Create(ctx context.Context, a account.Account) (account.Account, error) {
	err := r.obs.ObserveDB("accounts.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO accounts (id, email, password_hash, roles, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			a.ID, a.Email, a.PasswordHash, a.RoleNames(), a.CreatedAt, a.UpdatedAt,
		)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return account.Account{}, account.ErrEmailAlreadyUsed
		}
		return account.Account{}, fmt.Errorf("insert account: %w", err)
	}

	return a, nil
}

func (r *AccountsRepo) GetByEmail(ctx context.Context, email string) (account.Account, error) {
	var (
		a     account.Account
		roles []string
	)

	err := r.obs.ObserveDB("accounts.get_by_email", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, email, password_hash, roles, created_at, updated_at
			FROM accounts
			WHERE email = $1`,
			email,
		).Scan(&a.ID, &a.Email, &a.PasswordHash, &roles, &a.CreatedAt, &a.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, fmt.Errorf("get account: %w", err)
	}

	a.Roles = account.RolesFromNames(roles)
	return a, nil
}
