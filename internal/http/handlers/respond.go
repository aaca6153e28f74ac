package handlers

import (
	"net/http"

	"github.com/geocoder89/eventrest/internal/hal"
	"github.com/geocoder89/eventrest/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func requestIDFrom(ctx *gin.Context) string {
	return middlewares.RequestIDFrom(ctx)
}

func linkBuilder(ctx *gin.Context) hal.Builder {
	return middlewares.LinkBuilder(ctx)
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	middlewares.AbortWithError(ctx, status, code, message, details)
}

// RespondHAL writes payload with the HAL media type.
func RespondHAL(ctx *gin.Context, status int, payload interface{}) {
	ctx.Header("Content-Type", hal.MediaType)
	ctx.JSON(status, payload)
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}
