package model

import "errors"

var (
	// User related errors
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")

	// Authentication errors. Each one is reported to clients as the same
	// unauthorized response; the distinction only reaches server logs and metrics.
	ErrMalformedToken = errors.New("malformed token")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
	ErrWrongTokenKind = errors.New("wrong token kind")
	ErrUnknownSubject = errors.New("token subject not found")
	ErrAuthentication = errors.New("incorrect email or password")

	// Todo related errors
	ErrTodoNotFound = errors.New("todo not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)

var tokenErrors = []error{
	ErrMalformedToken,
	ErrTokenSignature,
	ErrTokenExpired,
	ErrWrongTokenKind,
	ErrUnknownSubject,
}

// IsTokenError reports whether err was caused by a bearer or refresh token
// that cannot be accepted.
func IsTokenError(err error) bool {
	for _, target := range tokenErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsUnauthorized reports whether err must be surfaced as 401.
func IsUnauthorized(err error) bool {
	return IsTokenError(err) || errors.Is(err, ErrAuthentication)
}
