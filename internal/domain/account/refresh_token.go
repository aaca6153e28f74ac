package account

import (
	"errors"
	"time"
)

// RefreshToken is the stored half of an issued refresh token. The raw token
// is never persisted, only its HMAC.
type RefreshToken struct {
	ID         string
	AccountID  string
	TokenHash  string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy *string
	CreatedAt  time.Time
}

var (
	ErrRefreshTokenInvalid = errors.New("refresh token invalid")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// CheckRotatable reports whether current may be exchanged for a token issued
// to accountID, given the hash of the presented raw token.
func (t RefreshToken) CheckRotatable(accountID, presentedHash string, now time.Time) error {
	if t.RevokedAt != nil || t.AccountID != accountID || t.TokenHash != presentedHash {
		return ErrRefreshTokenInvalid
	}
	if now.After(t.ExpiresAt) {
		return ErrRefreshTokenExpired
	}
	return nil
}
