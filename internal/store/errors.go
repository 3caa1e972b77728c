package store

// serr is a lightweight comparable error type. Using constants of this type
// allows errors.Is to work as expected across package boundaries.
type serr string

func (e serr) Error() string { return string(e) }

var (
	// ErrNotFound means the referenced queue entry or event does not exist.
	ErrNotFound = serr("entry not found")
	// ErrInvalidTransition means the entry was not in the required status.
	ErrInvalidTransition = serr("invalid status transition")
	// ErrEventFull means the targeted event has no tokens left.
	ErrEventFull = serr("event has no tokens available")
	// ErrDuplicateToken means a token number collided on insert. This should
	// only happen under a sequencer bug and is logged as a correctness
	// violation by callers.
	ErrDuplicateToken = serr("duplicate token number")
	// ErrStorageUnavailable wraps any persistence failure. Retryable.
	ErrStorageUnavailable = serr("storage unavailable")
)
