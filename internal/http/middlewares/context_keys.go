package middlewares

// gin context keys
const (
	CtxRequestID = "request_id"
	ctxClaimsKey = "auth.claims"

	// set by PublicBaseURL
	ctxPublicBaseURL = "hal.public_base_url"
)
