package utils

// Stable machine-readable reason codes returned alongside human-readable
// messages on every fatal API error. Internal details are logged, never
// returned.
const (
	ErrorUnauthenticated = "UNAUTHENTICATED"
	ErrorThrottled       = "THROTTLED"
	ErrorMalformedBatch  = "MALFORMED_BATCH"
	ErrorBadRequest      = "BAD_REQUEST"
	ErrorNotFound        = "NOT_FOUND"
	ErrorInternal        = "INTERNAL"
)
