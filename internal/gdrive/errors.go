package gdrive

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// Sentinel errors for Drive API status classification.
// Use errors.Is(err, gdrive.ErrNotFound) to check.
var (
	ErrUnauthorized = errors.New("gdrive: unauthorized")
	ErrForbidden    = errors.New("gdrive: forbidden")
	ErrNotFound     = errors.New("gdrive: not found")
	ErrServerError  = errors.New("gdrive: server error")
)

// APIError wraps a sentinel error with the HTTP status code and the API
// error message body for debugging.
type APIError struct {
	StatusCode int
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gdrive: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for codes with no sentinel.
func classifyStatus(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

// wrapErr converts a googleapi error into an APIError carrying the matching
// sentinel. Non-API errors pass through unchanged.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &APIError{
			StatusCode: gerr.Code,
			Message:    gerr.Message,
			Err:        classifyStatus(gerr.Code),
		}
	}

	return err
}

// IsAuthError reports whether err is an authentication or authorization
// failure recoverable by re-running the interactive login: HTTP 401/403, a
// token-endpoint failure, or an expired/revoked ADC grant, which surfaces
// as a transport-level error mentioning invalid_grant or expiry.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden) {
		return true
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return true
	}

	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "invalid_grant") || strings.Contains(msg, "expired")
}

// IsNotFound reports whether err is a 404 response. For documents this
// usually means "exists but not shared with this account": the API hides
// inaccessible files behind 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
