package profile

import "errors"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidInput    = errors.New("invalid input")
	// ErrCacheMiss is returned by a Cache that holds no entry for the owner.
	ErrCacheMiss = errors.New("profile cache miss")
)
