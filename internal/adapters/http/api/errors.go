package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrMissingUser      = errors.New("missing " + userIDHeader + " header")
	ErrNoScore          = errors.New("no score available yet")
	ErrMethodNotAllowed = errors.New("method not allowed")
)
