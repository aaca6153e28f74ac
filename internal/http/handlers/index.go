package handlers

import (
	"net/http"

	"github.com/geocoder89/eventrest/internal/hal"
	"github.com/gin-gonic/gin"
)

type indexResource struct {
	Links hal.Links `json:"_links"`
}

// Index is the API entry point; clients discover everything else from its links.
func Index(ctx *gin.Context) {
	b := linkBuilder(ctx)

	RespondHAL(ctx, http.StatusOK, indexResource{
		Links: hal.Links{}.
			Add("events", b.Href("api", "events")).
			Add("token", b.Href("oauth", "token")).
			Add("profile", profileHref(b)),
	})
}

// NoRoute renders unknown paths as the standard error resource.
func NoRoute(ctx *gin.Context) {
	RespondNotFound(ctx, "Resource not found")
}
