package recurrence

import "errors"

var (
	// ErrStoreRead marks failures reading rules or instances.
	ErrStoreRead = errors.New("store read failed")

	// ErrStoreWrite marks a failure persisting a generated instance.
	ErrStoreWrite = errors.New("store write failed")

	// ErrInvalidRule marks a rule with a malformed period.
	ErrInvalidRule = errors.New("invalid care rule")

	// ErrDuplicateInstance must be returned (wrapped) by TaskStore.CreateInstance
	// when an instance for the same rule and due date already exists.
	ErrDuplicateInstance = errors.New("task instance already exists")

	// ErrCycleInProgress is returned when RunCycle is called while another
	// cycle is still running on the same engine.
	ErrCycleInProgress = errors.New("cycle already in progress")
)
