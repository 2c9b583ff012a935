package domain

import "errors"

// Sentinel errors for betree domain operations.
//
// These cover the "Validation failure (recoverable)" tier of the error
// taxonomy: the caller discards the expression before compilation and
// continues running. Contract violations (type mismatches, unknown
// attributes at a required call site, comparing strings across
// variables) are not sentinel errors - see ContractViolation.
var (
	// ErrUnknownAttribute indicates a lookup against an attribute name
	// that has never been registered with the config.
	ErrUnknownAttribute = errors.New("betree: unknown attribute")

	// ErrAttrTypeMismatch describes an attribute value type that
	// conflicts with its already-registered domain. AddAttrDomain and
	// GetOrCreateAttr do not return it: they treat such a conflict as a
	// contract violation and panic.
	ErrAttrTypeMismatch = errors.New("betree: attribute value type mismatch")

	// ErrEmptyExpression indicates a rule was submitted with no
	// conditions at all.
	ErrEmptyExpression = errors.New("betree: expression has no nodes")

	// ErrStringCapacityExceeded indicates an EQ-to-string predicate
	// referenced a bounded string attribute whose interner has no
	// remaining capacity for a new literal.
	ErrStringCapacityExceeded = errors.New("betree: bounded string attribute has no remaining capacity")
)

// ContractViolation represents the "fatal, abort" error tier from the
// error taxonomy: invalid tag combinations, type mismatches between a
// variable's declared domain and an observed value, comparing strings
// from different variables, requesting a bound on an unsupported
// domain type, or a missing non-undefined attribute at match time.
//
// The core raises these via panic rather than os.Exit so an embedding
// host can recover and log the diagnostic; a host that does not recover
// still terminates, matching "terminate the process with a diagnostic".
type ContractViolation struct {
	Op      string
	Message string
}

func (e *ContractViolation) Error() string {
	return "betree: contract violation in " + e.Op + ": " + e.Message
}

// Violate panics with a ContractViolation. Centralizing the panic call
// keeps every contract-violation site identifiable in a stack trace as
// originating from this one function.
func Violate(op, message string) {
	panic(&ContractViolation{Op: op, Message: message})
}
