package types

// contextKey is a private type for context values set by the server
// layer and consumed by telemetry.
type contextKey string

const (
	// ContextKeyRequestID carries the per-request UUID.
	ContextKeyRequestID contextKey = "request_id"
	// ContextKeySessionID carries the caller's session identifier.
	ContextKeySessionID contextKey = "session_id"
	// ContextKeyRequestSource identifies the entry point (api, cli).
	ContextKeyRequestSource contextKey = "request_source"
)
