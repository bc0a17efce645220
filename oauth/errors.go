package oauth

import "fmt"

// AuthError reports a failed client-credentials exchange: the token
// endpoint was unreachable, answered with a non-success status, or
// returned a body without a usable access token.
type AuthError struct {
	URL        string
	StatusCode int
	Reason     string
	Err        error
}

func (e *AuthError) Error() string {
	msg := fmt.Sprintf("oauth: token request to %s failed", e.URL)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
