package api

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is matched by every error caused by a malformed request.
var ErrInvalidRequest = errors.New("invalid request")

// requestError carries the query or body parameter a request was rejected for.
type requestError struct {
	param string
	err   error
}

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() []error { return []error{ErrInvalidRequest, e.err} }

func badParam(param, format string, args ...any) error {
	return &requestError{param: param, err: fmt.Errorf(format, args...)}
}

// paramOf returns the rejected parameter of err, empty when none is known.
func paramOf(err error) string {
	var re *requestError
	if errors.As(err, &re) {
		return re.param
	}
	return ""
}
