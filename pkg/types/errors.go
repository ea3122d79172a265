package types

import "errors"

// Validation errors. Mutations return these before touching storage and
// leave the store unchanged.
var (
	ErrInvalidContent     = errors.New("content must not be empty")
	ErrInvalidDescription = errors.New("description must not be empty")
	ErrInvalidCategory    = errors.New("category does not exist")
	ErrInvalidPayload     = errors.New("payload cannot be serialized")
)

// Query errors.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrAmbiguousResult = errors.New("more than one entity matched")
	ErrUnknownQuery    = errors.New("unknown query kind")
	ErrInvalidFilter   = errors.New("invalid filter scope")
)

// History errors. Expected at the stack boundaries; CanUndo and CanRedo
// report the boundaries without erroring.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// ErrStorage marks failures from the underlying database. Wrapped
// errors keep the driver error in the chain for inspection.
var ErrStorage = errors.New("storage failure")
