package providers

import (
	"errors"
	"fmt"

	"bjugstad/fleetsync/internal/constants"
)

// ProviderError is a run-level adapter failure. The Code distinguishes
// token-endpoint rejections from data-request failures so the job layer and
// metrics can tell them apart; Details carries the upstream response body
// for diagnostics.
type ProviderError struct {
	Code    string
	Message string
	Details string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is a token-endpoint rejection.
func IsAuthError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == constants.ErrCodeUpstreamAuth
}
