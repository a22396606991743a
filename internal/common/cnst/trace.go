package cnst

// Tracer names
const (
	TraceAuth = "apphub/auth"
)

// Span names
const (
	SpanLogin        = "auth.login"
	SpanRegister     = "auth.register"
	SpanAuthenticate = "auth.authenticate"
)

// Attribute keys
const (
	AttrAccountID  = "account.id"
	AttrRole       = "account.role"
	AttrAuthVia    = "auth.via"
	AttrClientAddr = "client.remote_addr"
)
