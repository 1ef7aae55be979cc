package schedule

import "errors"

var (
	ErrMessageNotFound = errors.New("scheduled message not found")
	ErrNotCancelable   = errors.New("message is not cancelable")
	// ErrInvalidSchedule marks a recurrence spec violating its invariants.
	ErrInvalidSchedule = errors.New("invalid recurrence schedule")
	// ErrInvalidCondition marks a branch condition missing a companion field.
	ErrInvalidCondition = errors.New("invalid branch condition")
)
