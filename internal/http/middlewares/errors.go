package middlewares

import (
	"github.com/geocoder89/eventrest/internal/hal"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

// ErrorResource is the body of every non-OAuth error response.
type ErrorResource struct {
	Error APIError  `json:"error"`
	Links hal.Links `json:"_links,omitempty"`
}

// PublicBaseURL stores the configured public base URL on every request.
func PublicBaseURL(base string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if base != "" {
			c.Set(ctxPublicBaseURL, base)
		}
		c.Next()
	}
}

// LinkBuilder returns a builder rooted at the public base URL, or at the
// request's own scheme and host when none is configured.
func LinkBuilder(c *gin.Context) hal.Builder {
	return hal.NewBuilder(hal.BaseURL(c.Request, c.GetString(ctxPublicBaseURL)))
}

func RequestIDFrom(c *gin.Context) string {
	if s := c.GetString(CtxRequestID); s != "" {
		return s
	}
	// fallback header
	return c.GetHeader("X-Request-Id")
}

// AbortWithError writes the error resource, linking back to the API index.
func AbortWithError(c *gin.Context, status int, code, message string, details interface{}) {
	c.Header("Content-Type", hal.MediaType)
	c.AbortWithStatusJSON(status, ErrorResource{
		Error: APIError{
			Code:      code,
			Message:   message,
			RequestID: RequestIDFrom(c),
			Details:   details,
		},
		Links: hal.Links{}.Add("index", LinkBuilder(c).Href("api", "/")),
	})
}
