package domain

// Event is the sparse set of typed attribute values the matcher
// evaluates a compiled expression against: an ordered list of
// (variable_id, value) pairs. Attributes absent from Predicates are
// either allow-undefined (the referring predicate evaluates false) or,
// if the domain requires the attribute, a contract violation at match
// time.
type Event struct {
	Predicates []EventPredicate
}

// EventPredicate is one (variable_id, value) entry of an Event.
type EventPredicate struct {
	VarID VarID
	Value Value
}

// NewEvent builds an Event from predicates, in the order given. Order
// only affects GetVariable's scan cost, never its result, since VarIDs
// are unique within one event by construction.
func NewEvent(predicates ...EventPredicate) *Event {
	return &Event{Predicates: predicates}
}

// lookup outcome for get_variable.
type lookupResult int

const (
	// lookupMissing means the attribute is not present in the event at
	// all, and is not declared allow-undefined - a contract violation
	// at the call site unless the caller is specifically probing.
	lookupMissing lookupResult = iota
	// lookupUndefined means the attribute is declared allow-undefined
	// and is absent from the event.
	lookupUndefined
	// lookupDefined means a value was found.
	lookupDefined
)

// GetVariable implements get_variable: a linear scan of the event's
// predicate list for a matching var id. Returns the value and whether
// it was found; undefined-vs-missing is disambiguated by the caller
// via cfg.IsVariableAllowUndefined, matching the three-outcome contract
// the matcher's dispatch relies on.
func (e *Event) GetVariable(varID VarID) (Value, bool) {
	for _, p := range e.Predicates {
		if p.VarID == varID {
			return p.Value, true
		}
	}
	return Value{}, false
}
