package db

import (
	"context"
	"fmt"

	"github.com/geocoder89/eventrest/internal/config"
	"github.com/geocoder89/eventrest/internal/domain/account"
)

type accountEnsurer interface {
	Ensure(ctx context.Context, email, password string, roles ...account.Role) error
}

// EnsureDefaultAccounts creates the configured admin and user accounts if
// they are missing. Empty credentials skip the account.
func EnsureDefaultAccounts(ctx context.Context, svc accountEnsurer, cfg config.Config) error {
	if err := svc.Ensure(ctx, cfg.AdminEmail, cfg.AdminPassword, account.RoleAdmin, account.RoleUser); err != nil {
		return fmt.Errorf("ensure admin account: %w", err)
	}

	if err := svc.Ensure(ctx, cfg.UserEmail, cfg.UserPassword, account.RoleUser); err != nil {
		return fmt.Errorf("ensure user account: %w", err)
	}

	return nil
}
