package watsonx

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned when no IBM API key is configured.
	ErrMissingAPIKey = errors.New("watsonx: missing IBM API key")

	// ErrMissingScoringURL is returned when no deployment scoring URL is configured.
	ErrMissingScoringURL = errors.New("watsonx: missing deployment scoring URL")

	// ErrUnauthorized is returned when the deployment still rejects the
	// request after a token refresh.
	ErrUnauthorized = errors.New("watsonx: unauthorized")
)

// StatusError is returned for non-2xx responses from IAM or the deployment.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("watsonx: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("watsonx: unexpected status %d: %s", e.StatusCode, e.Body)
}
