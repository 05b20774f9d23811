package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError reports a non-success HTTP status from a provider API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsPermanent reports whether the failure should disable the backend for the
// remainder of the process (quota or permission errors).
func (e *StatusError) IsPermanent() bool {
	return e.StatusCode == http.StatusForbidden || e.StatusCode == http.StatusUnauthorized
}

// IsPermanentFailure reports whether err carries a permanent status error.
func IsPermanentFailure(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.IsPermanent()
}
