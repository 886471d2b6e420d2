package join

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPlans is returned when a join is started without any plan.
	ErrNoPlans = errors.New("join: at least one plan is required")
	// ErrEmptyPattern is carried by a plan built from a pattern with no sources.
	ErrEmptyPattern = errors.New("join: pattern has no sources")
	// ErrDuplicateSource is carried by a plan whose pattern names the same
	// source twice.
	ErrDuplicateSource = errors.New("join: pattern names the same source twice")
	// ErrNilReaction is carried by a plan built without a reaction.
	ErrNilReaction = errors.New("join: plan has no reaction")
	// ErrArity is returned when a typed plan's pattern has a different number
	// of sources than its reaction takes.
	ErrArity = errors.New("join: reaction arity mismatch")
)

// ErrorCode categorises terminal errors delivered downstream.
type ErrorCode string

const (
	// ErrCodeSourceError means one of the joined sources failed.
	ErrCodeSourceError ErrorCode = "SOURCE_ERROR"

	// ErrCodeReactionFailed means a reaction returned an error.
	ErrCodeReactionFailed ErrorCode = "REACTION_FAILED"

	// ErrCodeReactionPanic means a reaction panicked.
	ErrCodeReactionPanic ErrorCode = "REACTION_PANIC"
)

// Error is the terminal error a coordinator delivers to its downstream
// observer. The original cause is available through errors.Unwrap, so
// errors.Is against a source's own error keeps working.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// CoordinatorID identifies the failed coordinator.
	CoordinatorID string

	// PlanID identifies the plan whose reaction failed (reaction errors only).
	PlanID string

	// Source names the failed source (source errors only).
	Source string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Source != "":
		return fmt.Sprintf("%s: %s (coordinator=%s, source=%s): %v", e.Code, e.Message, e.CoordinatorID, e.Source, e.Err)
	case e.PlanID != "":
		return fmt.Sprintf("%s: %s (coordinator=%s, plan=%s): %v", e.Code, e.Message, e.CoordinatorID, e.PlanID, e.Err)
	default:
		return fmt.Sprintf("%s: %s (coordinator=%s): %v", e.Code, e.Message, e.CoordinatorID, e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsSourceError reports whether err is a join error caused by a failing source.
func IsSourceError(err error) bool {
	var je *Error
	if errors.As(err, &je) {
		return je.Code == ErrCodeSourceError
	}
	return false
}

// IsReactionError reports whether err is a join error caused by a reaction,
// either a returned error or a panic.
func IsReactionError(err error) bool {
	var je *Error
	if errors.As(err, &je) {
		return je.Code == ErrCodeReactionFailed || je.Code == ErrCodeReactionPanic
	}
	return false
}

func newSourceError(coordinatorID, source string, err error) *Error {
	return &Error{
		Code:          ErrCodeSourceError,
		Message:       "source failed",
		CoordinatorID: coordinatorID,
		Source:        source,
		Err:           err,
	}
}

func newReactionError(coordinatorID, planID string, err error) *Error {
	return &Error{
		Code:          ErrCodeReactionFailed,
		Message:       "reaction failed",
		CoordinatorID: coordinatorID,
		PlanID:        planID,
		Err:           err,
	}
}

func newReactionPanic(coordinatorID, planID string, recovered any) *Error {
	return &Error{
		Code:          ErrCodeReactionPanic,
		Message:       "reaction panicked",
		CoordinatorID: coordinatorID,
		PlanID:        planID,
		Err:           fmt.Errorf("panic: %v", recovered),
	}
}
