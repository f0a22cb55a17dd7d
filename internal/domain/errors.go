package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by readers, backends and the repository
// wraps exactly one of the first three; ErrNotFound and ErrAlreadyExists are
// wrapped together with ErrDatabase.
var (
	ErrParse    = errors.New("parse error")
	ErrDatabase = errors.New("database error")
	ErrConfig   = errors.New("config error")

	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// ParseErrorf formats an error that wraps ErrParse.
func ParseErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %w", ErrParse, fmt.Errorf(format, args...))
}

// DatabaseErrorf formats an error that wraps ErrDatabase.
func DatabaseErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %w", ErrDatabase, fmt.Errorf(format, args...))
}

// ConfigErrorf formats an error that wraps ErrConfig.
func ConfigErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %w", ErrConfig, fmt.Errorf(format, args...))
}

// NotFoundf formats an error that wraps both ErrDatabase and ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrDatabase, ErrNotFound, fmt.Sprintf(format, args...))
}

// AlreadyExistsf formats an error that wraps both ErrDatabase and ErrAlreadyExists.
func AlreadyExistsf(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrDatabase, ErrAlreadyExists, fmt.Sprintf(format, args...))
}
