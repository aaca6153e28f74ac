package middlewares

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/eventrest/internal/actorctx"
	"github.com/geocoder89/eventrest/internal/auth"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f fakeVerifier) VerifyAccessToken(string) (*auth.Claims, error) {
	return f.claims, f.err
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// assertErrorResource checks w carries the shared error body with an index link.
func assertErrorResource(t *testing.T, w *httptest.ResponseRecorder, wantCode string) {
	t.Helper()

	if ct := w.Header().Get("Content-Type"); ct != "application/hal+json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	var body ErrorResource
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v body=%s", err, w.Body.String())
	}
	if body.Error.Code != wantCode {
		t.Fatalf("error code = %q, want %q", body.Error.Code, wantCode)
	}
	if body.Links["index"].Href != "http://example.com/api/" {
		t.Fatalf("index link = %q", body.Links["index"].Href)
	}
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		verifier fakeVerifier
		want     int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer abc", verifier: fakeVerifier{err: errors.New("bad")}, want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer abc", verifier: fakeVerifier{claims: &auth.Claims{AccountID: "acc-1"}}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewAuthMiddleware(tt.verifier)
			r := gin.New()
			r.GET("/", m.RequireAuth(), func(c *gin.Context) {
				if actorctx.AccountID(c.Request.Context()) != "acc-1" {
					t.Errorf("actor not propagated to request context")
				}
				c.Status(http.StatusOK)
			})

			h := http.Header{}
			if tt.header != "" {
				h.Set("Authorization", tt.header)
			}
			w := serve(r, http.MethodGet, "/", h)

			if w.Code != tt.want {
				t.Fatalf("got status %d, want %d", w.Code, tt.want)
			}
			if w.Code == http.StatusUnauthorized {
				assertErrorResource(t, w, "unauthorized")
				if w.Header().Get("WWW-Authenticate") == "" {
					t.Fatalf("missing WWW-Authenticate")
				}
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	m := NewAuthMiddleware(fakeVerifier{err: errors.New("bad")})
	r := gin.New()
	r.GET("/", m.OptionalAuth(), func(c *gin.Context) {
		if _, ok := AccountIDFromContext(c); ok {
			t.Errorf("anonymous request should have no account")
		}
		c.Status(http.StatusOK)
	})

	if w := serve(r, http.MethodGet, "/", nil); w.Code != http.StatusOK {
		t.Fatalf("anonymous: got %d", w.Code)
	}

	h := http.Header{}
	h.Set("Authorization", "Bearer broken")
	if w := serve(r, http.MethodGet, "/", h); w.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token: got %d", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	m := NewAuthMiddleware(fakeVerifier{claims: &auth.Claims{AccountID: "acc-1", Roles: []string{"USER"}}})
	r := gin.New()
	r.GET("/admin", m.RequireAuth(), m.RequireRole("ADMIN"), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/user", m.RequireAuth(), m.RequireRole("USER"), func(c *gin.Context) { c.Status(http.StatusOK) })

	h := http.Header{}
	h.Set("Authorization", "Bearer ok")

	w := serve(r, http.MethodGet, "/admin", h)
	if w.Code != http.StatusForbidden {
		t.Fatalf("admin: got %d", w.Code)
	}
	assertErrorResource(t, w, "forbidden")
	if w := serve(r, http.MethodGet, "/user", h); w.Code != http.StatusOK {
		t.Fatalf("user: got %d", w.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.GET("/", rl.RateLimiterMiddleware(KeyByIP), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if w := serve(r, http.MethodGet, "/", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i, w.Code)
		}
	}

	w := serve(r, http.MethodGet, "/", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
	assertErrorResource(t, w, "rate_limited")

	now = now.Add(61 * time.Second)
	if w := serve(r, http.MethodGet, "/", nil); w.Code != http.StatusOK {
		t.Fatalf("after window: got %d", w.Code)
	}
}

func TestRequireJSON(t *testing.T) {
	r := gin.New()
	r.POST("/", RequireJSON(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := serve(r, http.MethodPost, "/", nil)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("no content type: got %d", w.Code)
	}
	assertErrorResource(t, w, "unsupported_media_type")

	h := http.Header{}
	h.Set("Content-Type", "application/hal+json;charset=UTF-8")
	if w := serve(r, http.MethodPost, "/", h); w.Code != http.StatusCreated {
		t.Fatalf("hal json: got %d", w.Code)
	}
}

func TestRequestIDEchoesHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	h := http.Header{}
	h.Set("X-Request-Id", "req-123")
	w := serve(r, http.MethodGet, "/", h)
	if got := w.Header().Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("got request id %q", got)
	}

	w = serve(r, http.MethodGet, "/", nil)
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected a generated request id")
	}
}

func TestAbortWithErrorUsesPublicBaseURL(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), PublicBaseURL("https://api.example.org"))
	r.GET("/", func(c *gin.Context) {
		AbortWithError(c, http.StatusConflict, "conflict", "already there", gin.H{"field": "name"})
	})

	h := http.Header{}
	h.Set("X-Request-Id", "req-9")
	w := serve(r, http.MethodGet, "/", h)
	if w.Code != http.StatusConflict {
		t.Fatalf("got %d", w.Code)
	}

	var body ErrorResource
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.RequestID != "req-9" || body.Error.Message != "already there" || body.Error.Details == nil {
		t.Fatalf("unexpected error body %+v", body.Error)
	}
	if body.Links["index"].Href != "https://api.example.org/api/" {
		t.Fatalf("index link = %q", body.Links["index"].Href)
	}
}
