package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/eventrest/internal/auth"
	"github.com/geocoder89/eventrest/internal/config"
	"github.com/geocoder89/eventrest/internal/domain/account"
	"github.com/geocoder89/eventrest/internal/http/handlers"
	"github.com/geocoder89/eventrest/internal/http/middlewares"
	"github.com/geocoder89/eventrest/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "eventrest"

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Events        handlers.EventsStore
	Accounts      handlers.Authenticator
	RefreshTokens handlers.RefreshTokenStore
	Tokens        *auth.Manager
	Prom          *observability.Prom
	Checks        map[string]handlers.PingFunc
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.PublicBaseURL(cfg.PublicBaseURL))

	r.NoRoute(handlers.NoRoute)

	// health
	h := handlers.NewHealthHandler(deps.Checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Prom != nil {
		r.GET("/metrics", gin.WrapH(deps.Prom.Handler()))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPI)

	authMW := middlewares.NewAuthMiddleware(deps.Tokens)

	// token endpoint, rate limited per client IP
	tokenLimiter := middlewares.NewRateLimiter(cfg.TokenRateLimit, time.Minute)
	oauthHandler := handlers.NewOAuthHandler(
		deps.Accounts,
		deps.Tokens,
		deps.RefreshTokens,
		handlers.ClientCredentials{ID: cfg.OAuthClientID, Secret: cfg.OAuthClientSecret},
		deps.Prom,
		log,
	)
	r.POST("/oauth/token", tokenLimiter.RateLimiterMiddleware(middlewares.KeyByIP), oauthHandler.Token)
	r.POST("/oauth/revoke", tokenLimiter.RateLimiterMiddleware(middlewares.KeyByIP), oauthHandler.Revoke)

	api := r.Group("/api")
	api.GET("/", handlers.Index)

	eventsHandler := handlers.NewEventsHandler(deps.Events, deps.Prom, log)

	events := api.Group("/events")
	events.Use(middlewares.RequireJSON())
	events.POST("", authMW.OptionalAuth(), eventsHandler.CreateEvent)
	events.GET("", authMW.OptionalAuth(), eventsHandler.ListEvents)
	events.GET("/:id", authMW.OptionalAuth(), eventsHandler.GetEvent)
	events.PUT("/:id", authMW.RequireAuth(), authMW.RequireRole(string(account.RoleUser)), eventsHandler.UpdateEvent)

	return r
}
