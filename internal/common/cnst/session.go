package cnst

// Session keys
const (
	SessionKeyAccountID = "account_id"
	SessionKeyRole      = "role"
)

// gin context keys set by the auth middleware
const (
	CtxKeyAccount = "account"
	CtxKeyRole    = "role"
	CtxKeyAuthVia = "auth_via"
)

const (
	HeaderAuthorization      = "Authorization"
	HeaderRetryAfter         = "Retry-After"
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	BearerPrefix             = "Bearer "
)
