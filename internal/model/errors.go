package model

import "errors"

// Error taxonomy. Callers match with errors.Is; lower layers wrap these
// with operation context.
var (
	// ErrNotFound means the referenced node does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidScope means an unknown Project was referenced.
	ErrInvalidScope = errors.New("invalid scope: unknown project")

	// ErrInvalidAgentType means an unregistered AgentType was referenced.
	ErrInvalidAgentType = errors.New("invalid agent type")

	// ErrConstraintViolation means the operation would create a structurally
	// invalid state, e.g. a second project-scope edge on one memory.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrTimeout means a store round-trip exceeded the caller's budget.
	// Partial results are never returned alongside it.
	ErrTimeout = errors.New("store timeout")

	// ErrResolverUnavailable means the debate mechanism is unreachable.
	// The resolver fails open to human escalation when it sees this.
	ErrResolverUnavailable = errors.New("resolver unavailable")
)
