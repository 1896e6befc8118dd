package service

import "errors"

var (
	ErrValidation     = errors.New("validation failed")
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrAccessDenied covers unknown user, wrong password and a missing or
	// mismatched refresh token alike, so callers cannot tell them apart.
	ErrAccessDenied   = errors.New("access denied")
	ErrNotFound       = errors.New("user not found")
	ErrSearchDisabled = errors.New("user search is not configured")
)
