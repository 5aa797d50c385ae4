package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrRateLimited        = errors.New("rate limited")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrMatchNotFound      = errors.New("match not found")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrInvalidStake       = errors.New("invalid stake")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)
