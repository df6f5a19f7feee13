package constants

// Provider error codes. Auth failures are kept distinct from ordinary
// request failures so callers can tell a dead credential from a flaky
// upstream.
const (
	ErrCodeUpstreamAuth    = "UPSTREAM_AUTH_ERROR"
	ErrCodeUpstreamRequest = "UPSTREAM_REQUEST_ERROR"
	ErrCodeNetworkError    = "NETWORK_ERROR"
	ErrCodeInvalidResponse = "INVALID_RESPONSE"
	ErrCodeMissingAPIKey   = "MISSING_API_KEY"
)

// ProviderErrorMessages maps error codes to operator-facing messages.
var ProviderErrorMessages = map[string]string{
	ErrCodeUpstreamAuth:    "Authentication against the upstream API failed",
	ErrCodeUpstreamRequest: "The upstream API rejected the request",
	ErrCodeNetworkError:    "Could not reach the upstream API",
	ErrCodeInvalidResponse: "The upstream API returned an unexpected payload",
	ErrCodeMissingAPIKey:   "No API key is configured for this provider",
}

// GetErrorMessage returns the operator-facing message for a code.
func GetErrorMessage(code string) string {
	if msg, ok := ProviderErrorMessages[code]; ok {
		return msg
	}
	return "Unknown provider error"
}
