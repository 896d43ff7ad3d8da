package errors

import "errors"

var (
	ErrInvalidClaimInput = errors.New("invalid claim input")
	ErrClaimNotFound     = errors.New("claim not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrConflict          = errors.New("claim conflict")
)
