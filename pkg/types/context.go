package types

// ContextKey is the type for values nutrigraph stores in a context.Context.
type ContextKey string

const (
	// ContextKeyRequestID carries the id assigned to an HTTP request.
	ContextKeyRequestID ContextKey = "request_id"
	// ContextKeyUserID carries the caller-supplied user id.
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeyRequestSource names the surface a call came from (http, cli).
	ContextKeyRequestSource ContextKey = "request_source"
)
