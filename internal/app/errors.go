package app

import "errors"

var (
	// ErrInvalidInput marks request validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFoundOrDenied is returned when a mutation matched no row for
	// the combined (entity id, owner id) predicate. Missing entity and
	// wrong owner collapse into the same error on purpose so callers
	// cannot probe for rows they do not own.
	ErrNotFoundOrDenied = errors.New("not found or access denied")

	// ErrOwnerNotFound is returned when the caller identity does not map
	// to an existing user.
	ErrOwnerNotFound = errors.New("user not found")

	// ErrAgentNotFound and ErrAgentInactive are distinct so clients can
	// tell a bad agent id from a retired one.
	ErrAgentNotFound = errors.New("ai agent not found")
	ErrAgentInactive = errors.New("ai agent is inactive")
)
