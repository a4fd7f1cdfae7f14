// Package apperr holds the sentinel error kinds shared by the store, service and transports.
package apperr

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("revision mismatch")

	// ErrLockRequired is returned when a destructive action targets a locked
	// file, or a folder that holds one.
	ErrLockRequired = errors.New("file is locked")

	// ErrPasswordRequired and ErrInvalidPassword are the two unlock failures.
	ErrPasswordRequired = errors.New("password not provided")
	ErrInvalidPassword  = errors.New("invalid password")

	ErrMissingSecret  = errors.New("cannot lock file without a password")
	ErrNotSuggestable = errors.New("tag suggestion needs a text or link file with content")

	// ErrUpstream wraps failures of external collaborators such as the tag suggester.
	ErrUpstream = errors.New("upstream service failed")
)
