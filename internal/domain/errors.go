package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflicting payload for existing record")
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrValidation     = errors.New("validation failed")
)
