package domain

import "errors"

// Store errors
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrPermissionDenied indicates insufficient permissions
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotDirectory indicates expected a directory but got a file
	ErrNotDirectory = errors.New("not a directory")

	// ErrQuotaExceeded indicates storage quota has been exceeded
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrRateLimited indicates the store rejected the call for exceeding its rate limit
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidName indicates an empty or unusable folder or file name
	ErrInvalidName = errors.New("invalid name")

	// ErrNotAuthenticated indicates no usable credentials are available
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Config errors
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed
	ErrConfigInvalid = errors.New("invalid config")
)

// Run errors
var (
	// ErrUploadInProgress indicates another upload run holds the lock
	ErrUploadInProgress = errors.New("upload already in progress")
)
