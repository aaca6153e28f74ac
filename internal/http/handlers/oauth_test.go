package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/geocoder89/eventrest/internal/accounts"
	"github.com/geocoder89/eventrest/internal/domain/account"
	"github.com/geocoder89/eventrest/internal/http/handlers"
	"github.com/geocoder89/eventrest/internal/repo/memory"
	"github.com/geocoder89/eventrest/internal/security"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const (
	clientID     = "myApp"
	clientSecret = "pass"
)

func setupOAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()

	svc := accounts.NewService(memory.NewAccountsRepo()).WithHasher(func(plain string) (string, error) {
		return security.HashPasswordCost(plain, bcrypt.MinCost)
	})
	if _, err := svc.Save(context.Background(), "user@example.com", "user", account.RoleUser); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	h := handlers.NewOAuthHandler(
		svc,
		newTokens(),
		memory.NewRefreshTokensRepo(),
		handlers.ClientCredentials{ID: clientID, Secret: clientSecret},
		nil,
		nil,
	)

	r := gin.New()
	r.POST("/oauth/token", h.Token)
	r.POST("/oauth/revoke", h.Revoke)
	return r
}

func postToken(r *gin.Engine, form url.Values, withClient bool) *httptest.ResponseRecorder {
	return postForm(r, "/oauth/token", form, withClient)
}

func postForm(r *gin.Engine, path string, form url.Values, withClient bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if withClient {
		req.SetBasicAuth(clientID, clientSecret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func oauthError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v body=%s", err, w.Body.String())
	}
	return body.Error
}

func TestTokenPasswordGrant(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		withClient bool
		wantStatus int
		wantError  string
	}{
		{
			name:       "valid_credentials",
			form:       url.Values{"grant_type": {"password"}, "username": {"user@example.com"}, "password": {"user"}},
			withClient: true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "email_is_case_insensitive",
			form:       url.Values{"grant_type": {"password"}, "username": {"USER@example.com"}, "password": {"user"}},
			withClient: true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong_password",
			form:       url.Values{"grant_type": {"password"}, "username": {"user@example.com"}, "password": {"nope"}},
			withClient: true,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_grant",
		},
		{
			name:       "unknown_user",
			form:       url.Values{"grant_type": {"password"}, "username": {"ghost@example.com"}, "password": {"user"}},
			withClient: true,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_grant",
		},
		{
			name:       "missing_client",
			form:       url.Values{"grant_type": {"password"}, "username": {"user@example.com"}, "password": {"user"}},
			wantStatus: http.StatusUnauthorized,
			wantError:  "invalid_client",
		},
		{
			name:       "unsupported_grant",
			form:       url.Values{"grant_type": {"client_credentials"}},
			withClient: true,
			wantStatus: http.StatusBadRequest,
			wantError:  "unsupported_grant_type",
		},
		{
			name:       "missing_grant",
			form:       url.Values{},
			withClient: true,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postToken(setupOAuthRouter(t), tt.form, tt.withClient)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if w.Header().Get("Cache-Control") != "no-store" {
				t.Fatalf("token responses must not be cached")
			}

			if tt.wantError != "" {
				if got := oauthError(t, w); got != tt.wantError {
					t.Fatalf("error = %q, want %q", got, tt.wantError)
				}
				if tt.wantStatus == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
					t.Fatalf("missing WWW-Authenticate header")
				}
				return
			}

			var tok handlers.TokenResponse
			if err := json.Unmarshal(w.Body.Bytes(), &tok); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if tok.AccessToken == "" || tok.RefreshToken == "" || tok.TokenType != "bearer" || tok.ExpiresIn != 900 {
				t.Fatalf("unexpected token response: %+v", tok)
			}
		})
	}
}

func TestTokenRefreshGrantRotates(t *testing.T) {
	r := setupOAuthRouter(t)

	w := postToken(r, url.Values{"grant_type": {"password"}, "username": {"user@example.com"}, "password": {"user"}}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("password grant: %d %s", w.Code, w.Body.String())
	}
	var first handlers.TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = postToken(r, url.Values{"grant_type": {"refresh_token"}, "refresh_token": {first.RefreshToken}}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh grant: %d %s", w.Code, w.Body.String())
	}
	var second handlers.TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if second.RefreshToken == "" || second.RefreshToken == first.RefreshToken {
		t.Fatalf("refresh token was not rotated")
	}

	// the rotated-out token cannot be replayed
	w = postToken(r, url.Values{"grant_type": {"refresh_token"}, "refresh_token": {first.RefreshToken}}, true)
	if w.Code != http.StatusBadRequest || oauthError(t, w) != "invalid_grant" {
		t.Fatalf("replay: got %d %s", w.Code, w.Body.String())
	}

	// an access token is not a refresh token
	w = postToken(r, url.Values{"grant_type": {"refresh_token"}, "refresh_token": {second.AccessToken}}, true)
	if w.Code != http.StatusBadRequest || oauthError(t, w) != "invalid_grant" {
		t.Fatalf("access token as refresh: got %d %s", w.Code, w.Body.String())
	}
}

func TestRevokeRefreshToken(t *testing.T) {
	r := setupOAuthRouter(t)

	w := postToken(r, url.Values{"grant_type": {"password"}, "username": {"user@example.com"}, "password": {"user"}}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("password grant: %d %s", w.Code, w.Body.String())
	}
	var tok handlers.TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &tok); err != nil {
		t.Fatalf("decode: %v", err)
	}

	tests := []struct {
		name       string
		form       url.Values
		withClient bool
		wantStatus int
		wantError  string
	}{
		{
			name:       "no_client",
			form:       url.Values{"token": {tok.RefreshToken}},
			wantStatus: http.StatusUnauthorized,
			wantError:  "invalid_client",
		},
		{
			name:       "missing_token",
			form:       url.Values{},
			withClient: true,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_request",
		},
		{
			name:       "access_token_hint",
			form:       url.Values{"token": {tok.AccessToken}, "token_type_hint": {"access_token"}},
			withClient: true,
			wantStatus: http.StatusBadRequest,
			wantError:  "unsupported_token_type",
		},
		{
			name:       "unknown_token",
			form:       url.Values{"token": {"not-a-token"}},
			withClient: true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "refresh_token",
			form:       url.Values{"token": {tok.RefreshToken}, "token_type_hint": {"refresh_token"}},
			withClient: true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "already_revoked",
			form:       url.Values{"token": {tok.RefreshToken}},
			withClient: true,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postForm(r, "/oauth/revoke", tt.form, tt.withClient)
			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantError != "" && oauthError(t, w) != tt.wantError {
				t.Fatalf("got error %q, want %q", oauthError(t, w), tt.wantError)
			}
		})
	}

	// a revoked refresh token can no longer be exchanged
	w = postToken(r, url.Values{"grant_type": {"refresh_token"}, "refresh_token": {tok.RefreshToken}}, true)
	if w.Code != http.StatusBadRequest || oauthError(t, w) != "invalid_grant" {
		t.Fatalf("refresh after revoke: got %d %s", w.Code, w.Body.String())
	}
}
