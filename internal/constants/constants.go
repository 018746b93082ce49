package constants

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Context keys
const (
	ContextKeyRequestID = "request_id"
	ContextKeyProject   = "project"
)

// Headers
const (
	HeaderRequestID = "X-Request-ID"
)

// Team limits used when nothing is configured.
const (
	DefaultMaxTeamSize = 9
	// DefaultMaxManagers of zero means no manager ceiling.
	DefaultMaxManagers = 0
)
