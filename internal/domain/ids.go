package domain

import "github.com/google/uuid"

// ExprID is the host-facing identifier for a compiled expression (one
// root node of the tree). The engine itself never interprets or stores
// this value; a host keeps it alongside a compiled root to correlate a
// match result back to the rule that produced it. String alias enables type
// safety while keeping JSON string serialization for free.
type ExprID string

// NewExprID generates a UUIDv7 expression identifier. Time-ordering
// keeps sequentially created ids sorting the way they were created.
// Panics on clock regression (uuid.Must); acceptable for id generation.
func NewExprID() ExprID {
	return ExprID(uuid.Must(uuid.NewV7()).String())
}
