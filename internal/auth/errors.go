package auth

import "errors"

var (
	ErrNoCredential    = errors.New("admin credential not configured")
	ErrTokenInvalid    = errors.New("session token invalid")
	ErrPasswordTooWeak = errors.New("password does not meet minimum length")
)
