// Package apperr holds the error taxonomy shared by the pipeline packages.
// Callers match with errors.Is; constructors only add context.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad input shape or range. Always rejected before mutation.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown application, evaluation or evaluator.
	ErrNotFound = errors.New("not found")
	// ErrStaleTransition marks an advance behind the application's current stage.
	// It never reaches callers of Advance as an error.
	ErrStaleTransition = errors.New("stale stage transition")
	// ErrStageResolved marks a submission onto a PASSED/FAILED stage or a closed application.
	ErrStageResolved = errors.New("stage already resolved")
	// ErrInsufficientCandidates marks a panel pool smaller than the requested panel.
	ErrInsufficientCandidates = errors.New("insufficient candidates")
	// ErrConflict marks a uniqueness clash, e.g. one evaluator evaluating a stage twice.
	ErrConflict = errors.New("conflict")
)

// Validation wraps ErrValidation with a formatted message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound naming the missing entity.
func NotFound(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}

// StageResolved wraps ErrStageResolved with a formatted message.
func StageResolved(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStageResolved, fmt.Sprintf(format, args...))
}

// Conflict wraps ErrConflict with a formatted message.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// InsufficientCandidates reports how many evaluators were usable against how many were required.
func InsufficientCandidates(have, want int) error {
	return fmt.Errorf("%w: %d available, %d required", ErrInsufficientCandidates, have, want)
}
