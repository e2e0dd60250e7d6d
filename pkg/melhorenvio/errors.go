package melhorenvio

import (
	"errors"
	"fmt"
)

// APIError is any non-2xx answer from the carrier. Body is kept verbatim so
// operators see the upstream explanation.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("melhor envio: status %d", e.StatusCode)
	}
	return fmt.Sprintf("melhor envio: status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the failure is on the carrier side.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500
}

// AsAPIError extracts the upstream error from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
