package opentdb

import (
	"errors"
	"fmt"
	"net/http"
)

// Response codes returned by the questions endpoint.
const (
	CodeSuccess           = 0
	CodeNoResults         = 1
	CodeInvalidParameters = 2
	CodeTokenNotFound     = 3
	CodeTokenEmpty        = 4
	CodeRateLimit         = 5
)

var (
	// ErrInvalidParameters is returned for response code 2.
	ErrInvalidParameters = errors.New("invalid parameters")
	// ErrRateLimited is returned for response code 5.
	ErrRateLimited = errors.New("rate limit exceeded, please wait")
)

// HTTPError reports a non-2xx HTTP response.
type HTTPError struct {
	Endpoint   string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %d %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}

// APIError reports a non-success response code from the questions endpoint.
type APIError struct {
	Code int
}

func (e *APIError) Error() string {
	switch e.Code {
	case CodeInvalidParameters:
		return ErrInvalidParameters.Error()
	case CodeRateLimit:
		return ErrRateLimited.Error()
	default:
		return fmt.Sprintf("api error: response code %d", e.Code)
	}
}

// Unwrap maps known codes to their sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case CodeInvalidParameters:
		return ErrInvalidParameters
	case CodeRateLimit:
		return ErrRateLimited
	default:
		return nil
	}
}
