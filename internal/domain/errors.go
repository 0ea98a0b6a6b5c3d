package domain

import "errors"

var (
	// ErrConfigInvalid is returned when a hierarchy config fails structural validation.
	ErrConfigInvalid = errors.New("hierarchy config invalid")

	// ErrPresetUnknown is returned when no framework preset is registered under a key.
	ErrPresetUnknown = errors.New("framework preset unknown")

	// ErrInvalidTransition is returned for a migration job status change the
	// job state machine does not allow.
	ErrInvalidTransition = errors.New("invalid migration job transition")

	// ErrRollbackNotAllowed is returned when rollback targets a job that is not
	// a completed APPLY run.
	ErrRollbackNotAllowed = errors.New("rollback not allowed")
)
