package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when a user doesn't have permission for an action
	ErrForbidden = errors.New("forbidden")

	// ErrFileTooLarge is returned when an upload exceeds its size limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnsupportedFileType is returned for uploads with a wrong extension
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// wrapRepoError maps gorm's lookup and uniqueness errors onto service errors
func wrapRepoError(err error, action string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", action, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", action, ErrConflict)
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}
