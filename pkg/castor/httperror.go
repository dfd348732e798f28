package castor

import (
	"context"
	"errors"
	"net/http"
)

// HTTPError is an error carrying the HTTP status a host should reply with.
// Hooks and source methods may return one to choose the status themselves.
type HTTPError struct {
	Code     int         `json:"code" msgpack:"code"`
	Message  interface{} `json:"message" msgpack:"message"`
	Internal error       `json:"-" msgpack:"-"`
}

// Error makes HTTPError implement the error interface
func (he *HTTPError) Error() string {
	if he.Internal != nil {
		return he.Internal.Error()
	}
	if s, ok := he.Message.(string); ok {
		return s
	}
	return http.StatusText(he.Code)
}

// Unwrap returns the internal error
func (he *HTTPError) Unwrap() error {
	return he.Internal
}

// NewHTTPError creates a new HTTPError instance
func NewHTTPError(code int, message ...interface{}) *HTTPError {
	he := &HTTPError{Code: code}
	if len(message) > 0 {
		he.Message = message[0]
	} else {
		he.Message = http.StatusText(code)
	}
	if len(message) > 1 {
		if err, ok := message[1].(error); ok {
			he.Internal = err
		}
	}
	return he
}

// ErrBadRequest creates a 400 Bad Request error
func ErrBadRequest(message string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message)
}

// ErrNotFound creates a 404 Not Found error
func ErrNotFound(message string) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message)
}

// ErrInternalServerError creates a 500 Internal Server Error
func ErrInternalServerError(message string) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message)
}

// ToHTTPError maps an operation failure to the status a host should report.
// An *HTTPError anywhere in the chain wins; binding failures are client errors;
// closed controllers are unavailable; everything else is an internal error.
func ToHTTPError(err error) *HTTPError {
	var he *HTTPError
	if errors.As(err, &he) {
		return he
	}

	var be *BindingError
	switch {
	case errors.As(err, &be):
		return NewHTTPError(http.StatusBadRequest, be.Error(), err)
	case errors.Is(err, ErrOperationNotFound):
		return NewHTTPError(http.StatusNotFound, http.StatusText(http.StatusNotFound), err)
	case errors.Is(err, ErrControllerClosed):
		return NewHTTPError(http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable), err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewHTTPError(http.StatusGatewayTimeout, http.StatusText(http.StatusGatewayTimeout), err)
	}
	return NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), err)
}
