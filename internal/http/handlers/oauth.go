package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/eventrest/internal/accounts"
	"github.com/geocoder89/eventrest/internal/auth"
	"github.com/geocoder89/eventrest/internal/domain/account"
	"github.com/geocoder89/eventrest/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const (
	grantPassword     = "password"
	grantRefreshToken = "refresh_token"

	tokenScope = "read write"
)

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (account.Account, error)
}

type RefreshTokenStore interface {
	Create(ctx context.Context, row account.RefreshToken) error
	Rotate(ctx context.Context, id, presentedHash string, next account.RefreshToken) error
	Revoke(ctx context.Context, id string) error
}

type TokenIssuer interface {
	AccessTTL() time.Duration
	GenerateAccessToken(accountID, email string, roles []string) (string, error)
	GenerateRefreshToken(accountID, email string, roles []string) (raw string, jti string, expiresAt time.Time, err error)
	VerifyRefreshToken(tokenStr string) (*auth.Claims, error)
	HashRefreshToken(raw string) string
}

// ClientCredentials identify the single OAuth client allowed to request tokens.
type ClientCredentials struct {
	ID     string
	Secret string
}

type OAuthHandler struct {
	accounts Authenticator
	tokens   TokenIssuer
	refresh  RefreshTokenStore
	client   ClientCredentials
	prom     *observability.Prom
	log      *slog.Logger
}

func NewOAuthHandler(accounts Authenticator, tokens TokenIssuer, refresh RefreshTokenStore, client ClientCredentials, prom *observability.Prom, log *slog.Logger) *OAuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &OAuthHandler{
		accounts: accounts,
		tokens:   tokens,
		refresh:  refresh,
		client:   client,
		prom:     prom,
		log:      log,
	}
}

type TokenRequest struct {
	GrantType    string `form:"grant_type"`
	Username     string `form:"username"`
	Password     string `form:"password"`
	RefreshToken string `form:"refresh_token"`
	Scope        string `form:"scope"`
}

type RevokeRequest struct {
	Token         string `form:"token"`
	TokenTypeHint string `form:"token_type_hint"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// respondOAuthError writes the error shape clients of a token endpoint expect.
func respondOAuthError(ctx *gin.Context, status int, code, description string) {
	ctx.Header("Cache-Control", "no-store")
	ctx.Header("Pragma", "no-cache")
	if status == http.StatusUnauthorized {
		ctx.Header("WWW-Authenticate", `Basic realm="oauth"`)
	}
	ctx.AbortWithStatusJSON(status, gin.H{
		"error":             code,
		"error_description": description,
	})
}

func (h *OAuthHandler) clientAuthorized(ctx *gin.Context) bool {
	id, secret, ok := ctx.Request.BasicAuth()
	if !ok {
		return false
	}
	idOK := subtle.ConstantTimeCompare([]byte(id), []byte(h.client.ID)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(secret), []byte(h.client.Secret)) == 1
	return idOK && secretOK
}

// Token implements POST /oauth/token for the password and refresh_token grants.
func (h *OAuthHandler) Token(ctx *gin.Context) {
	if !h.clientAuthorized(ctx) {
		respondOAuthError(ctx, http.StatusUnauthorized, "invalid_client", "Client authentication failed")
		return
	}

	var req TokenRequest
	if err := ctx.ShouldBindWith(&req, binding.Form); err != nil {
		respondOAuthError(ctx, http.StatusBadRequest, "invalid_request", "Request body must be form encoded")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	switch strings.TrimSpace(req.GrantType) {
	case grantPassword:
		h.passwordGrant(ctx, cctx, req)
	case grantRefreshToken:
		h.refreshGrant(ctx, cctx, req)
	case "":
		respondOAuthError(ctx, http.StatusBadRequest, "invalid_request", "Missing grant_type")
	default:
		respondOAuthError(ctx, http.StatusBadRequest, "unsupported_grant_type", "Unsupported grant type")
	}
}

func (h *OAuthHandler) passwordGrant(ctx *gin.Context, cctx context.Context, req TokenRequest) {
	if req.Username == "" || req.Password == "" {
		respondOAuthError(ctx, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	acc, err := h.accounts.Authenticate(cctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrBadCredentials) {
			respondOAuthError(ctx, http.StatusBadRequest, "invalid_grant", "Bad credentials")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "authenticate failed", "err", err, "request_id", requestIDFrom(ctx))
		respondOAuthError(ctx, http.StatusInternalServerError, "server_error", "Could not issue token")
		return
	}

	roles := acc.RoleNames()

	rawRefresh, jti, expiresAt, err := h.tokens.GenerateRefreshToken(acc.ID, acc.Email, roles)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "generate refresh token failed", "err", err)
		respondOAuthError(ctx, http.StatusInternalServerError, "server_error", "Could not issue token")
		return
	}

	err = h.refresh.Create(cctx, h.refreshRow(acc.ID, jti, rawRefresh, expiresAt))
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "store refresh token failed", "err", err, "request_id", requestIDFrom(ctx))
		respondOAuthError(ctx, http.StatusInternalServerError, "server_error", "Could not issue token")
		return
	}

	h.respondToken(ctx, grantPassword, acc.ID, acc.Email, roles, rawRefresh)
}

func (h *OAuthHandler) refreshGrant(ctx *gin.Context, cctx context.Context, req TokenRequest) {
	if req.RefreshToken == "" {
		respondOAuthError(ctx, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	claims, err := h.tokens.VerifyRefreshToken(req.RefreshToken)
	if err != nil {
		respondOAuthError(ctx, http.StatusBadRequest, "invalid_grant", "Invalid refresh token")
		return
	}

	rawRefresh, jti, expiresAt, err := h.tokens.GenerateRefreshToken(claims.AccountID, claims.Email, claims.Roles)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "generate refresh token failed", "err", err)
		respondOAuthError(ctx, http.StatusInternalServerError, "server_error", "Could not issue token")
		return
	}

	next := h.refreshRow(claims.AccountID, jti, rawRefresh, expiresAt)

	err = h.refresh.Rotate(cctx, claims.JTI, h.tokens.HashRefreshToken(req.RefreshToken), next)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrRefreshTokenExpired):
			respondOAuthError(ctx, http.StatusBadRequest, "invalid_grant", "Refresh token expired")
		case errors.Is(err, account.ErrRefreshTokenInvalid):
			respondOAuthError(ctx, http.StatusBadRequest, "invalid_grant", "Invalid refresh token")
		default:
			h.log.ErrorContext(ctx.Request.Context(), "rotate refresh token failed", "err", err, "request_id", requestIDFrom(ctx))
			respondOAuthError(ctx, http.StatusInternalServerError, "server_error", "Could not refresh token")
		}
		return
	}

	h.respondToken(ctx, grantRefreshToken, claims.AccountID, claims.Email, claims.Roles, rawRefresh)
}

func (h *OAuthHandler) refreshRow(accountID, jti, raw string, expiresAt time.Time) account.RefreshToken {
	return account.RefreshToken{
		ID:        jti,
		AccountID: accountID,
		TokenHash: h.tokens.HashRefreshToken(raw),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
}

func (h *OAuthHandler) respondToken(ctx *gin.Context, grant, accountID, email string, roles []string, rawRefresh string) {
	accessToken, err := h.tokens.GenerateAccessToken(accountID, email, roles)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "generate access token failed", "err", err)
		respondOAuthError(ctx, http.StatusInternalServerError, "server_error", "Could not issue token")
		return
	}

	if h.prom != nil {
		h.prom.TokensIssued.WithLabelValues(grant).Inc()
	}

	ctx.Header("Cache-Control", "no-store")
	ctx.Header("Pragma", "no-cache")
	ctx.JSON(http.StatusOK, TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "bearer",
		RefreshToken: rawRefresh,
		ExpiresIn:    int(h.tokens.AccessTTL().Seconds()),
		Scope:        tokenScope,
	})
}

// Revoke implements POST /oauth/revoke (RFC 7009) for refresh tokens. Unknown,
// expired or already revoked tokens still answer 200.
func (h *OAuthHandler) Revoke(ctx *gin.Context) {
	if !h.clientAuthorized(ctx) {
		respondOAuthError(ctx, http.StatusUnauthorized, "invalid_client", "Client authentication failed")
		return
	}

	var req RevokeRequest
	if err := ctx.ShouldBindWith(&req, binding.Form); err != nil || strings.TrimSpace(req.Token) == "" {
		respondOAuthError(ctx, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}

	// access tokens are stateless and expire on their own
	if req.TokenTypeHint == "access_token" {
		respondOAuthError(ctx, http.StatusBadRequest, "unsupported_token_type", "Only refresh tokens can be revoked")
		return
	}

	claims, err := h.tokens.VerifyRefreshToken(req.Token)
	if err == nil {
		cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
		defer cancel()

		if err := h.refresh.Revoke(cctx, claims.JTI); err != nil {
			h.log.ErrorContext(ctx.Request.Context(), "revoke refresh token failed", "err", err, "request_id", requestIDFrom(ctx))
			respondOAuthError(ctx, http.StatusServiceUnavailable, "server_error", "Could not revoke token")
			return
		}
	}

	ctx.Header("Cache-Control", "no-store")
	ctx.Header("Pragma", "no-cache")
	ctx.Status(http.StatusOK)
}
