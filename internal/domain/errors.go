package domain

import "errors"

var (
	// ErrNetwork indicates a transport failure talking to an external provider.
	ErrNetwork = errors.New("network failure")
	// ErrMalformedResponse indicates an upstream payload that could not be used.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrUnavailable is what providers return at their boundary; callers fall back on it.
	ErrUnavailable = errors.New("provider unavailable")
	// ErrNoData indicates every fallback tier was exhausted.
	ErrNoData = errors.New("no data available")
	// ErrInvalidInput is the only error meant to reach the user.
	ErrInvalidInput = errors.New("invalid input")
)
