package services

import (
	"errors"

	"github.com/taskboard/backend/internal/domain"
)

// Project errors
var (
	ErrProjectNotFound     = errors.New("project: not found")
	ErrProjectInvalidInput = errors.New("project: invalid input")
)

// Task errors
var (
	ErrTaskNotFound     = errors.New("task: not found")
	ErrTaskInvalidInput = errors.New("task: invalid input")
)

// Ordering errors
var (
	ErrInvalidColumn   = errors.New("ordering: unknown column")
	ErrInvalidPosition = errors.New("ordering: position must not be negative")
)

// IsNotFound reports whether err belongs to the NotFound category.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProjectNotFound) || errors.Is(err, ErrTaskNotFound)
}

// IsInvalidArgument reports whether err belongs to the InvalidArgument category.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidColumn) ||
		errors.Is(err, ErrInvalidPosition) ||
		errors.Is(err, ErrTaskInvalidInput) ||
		errors.Is(err, ErrProjectInvalidInput)
}

// notFound replaces a repository miss with the service sentinel.
func notFound(err error, sentinel error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return sentinel
	}
	return err
}
