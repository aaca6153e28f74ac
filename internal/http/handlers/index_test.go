package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/eventrest/internal/http/handlers"
	"github.com/geocoder89/eventrest/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func TestIndexLinks(t *testing.T) {
	r := gin.New()
	r.GET("/api/", handlers.Index)

	req := httptest.NewRequest(http.MethodGet, "/api/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}

	res := decode(t, w)
	if got := linkHref(t, res, "events"); got != "https://example.com/api/events" {
		t.Fatalf("events link = %q", got)
	}
	if got := linkHref(t, res, "token"); got != "https://example.com/oauth/token" {
		t.Fatalf("token link = %q", got)
	}
	if linkHref(t, res, "profile") == "" {
		t.Fatalf("missing profile link")
	}
}

func TestIndexUsesPublicBaseURL(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.PublicBaseURL("https://api.example.org"))
	r.GET("/api/", handlers.Index)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/", nil))

	if got := linkHref(t, decode(t, w), "events"); got != "https://api.example.org/api/events" {
		t.Fatalf("events link = %q", got)
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]handlers.PingFunc
		want   int
	}{
		{name: "no_checks", want: http.StatusOK},
		{
			name: "healthy",
			checks: map[string]handlers.PingFunc{
				"db": func(context.Context) error { return nil },
			},
			want: http.StatusOK,
		},
		{
			name: "db_down",
			checks: map[string]handlers.PingFunc{
				"db":    func(context.Context) error { return errors.New("connection refused") },
				"redis": func(context.Context) error { return nil },
			},
			want: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(tt.checks)
			r := gin.New()
			r.GET("/readyz", h.Readyz)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if w.Code != tt.want {
				t.Fatalf("got status %d, want %d", w.Code, tt.want)
			}
		})
	}
}
