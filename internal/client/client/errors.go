package client

import "errors"

var (
	// ErrUnavailable marks transport failures: network errors, timeouts and
	// 5xx / codes.Unavailable responses.
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized marks a 401/403 or codes.Unauthenticated/PermissionDenied.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBadResponse means the server answered successfully but the payload
	// lacks a required field.
	ErrBadResponse = errors.New("invalid server response")
)
