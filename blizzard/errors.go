package blizzard

import (
	"fmt"

	"github.com/s0up4200/blizzapi/namespace"
	"github.com/s0up4200/blizzapi/oauth"
)

// ConfigurationError reports an invalid option or configuration value
type ConfigurationError = namespace.ConfigurationError

// AuthError reports a failed access token exchange
type AuthError = oauth.AuthError

// APIError is returned in regular mode for any status other than 200 and 304
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	msg := fmt.Sprintf("blizzard API error: GET %s: status %d", e.URL, e.StatusCode)
	if e.Body != "" {
		body := e.Body
		if len(body) > 256 {
			body = body[:256] + "..."
		}
		msg += ": " + body
	}
	return msg
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsRetryable reports whether a caller-side retry could succeed
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// TransportError reports a connection-level failure (DNS, TLS, timeout,
// reset) before a complete response was received.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("blizzard transport error: GET %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError reports a body that could not be decoded in the requested format
type DecodeError struct {
	URL    string
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("blizzard decode error: GET %s: invalid %s body: %v", e.URL, e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
