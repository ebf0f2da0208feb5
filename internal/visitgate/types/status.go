package types

// Status is the visitor lifecycle state.  Transitions are monotonic:
// pending -> checked-in -> checked-out, with cancellation possible from
// any non-terminal state.  checked-out and cancelled are terminal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusCheckedIn  Status = "checked-in"
	StatusCheckedOut Status = "checked-out"
	StatusCancelled  Status = "cancelled"
)

// IsValid reports whether s is one of the known lifecycle states.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCheckedIn, StatusCheckedOut, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted from s.
func (s Status) IsTerminal() bool {
	return s == StatusCheckedOut || s == StatusCancelled
}

// CanTransition is the pure transition predicate for the visitor lifecycle.
// It makes no writes; callers that act on its answer must pair the decision
// with a compare-and-set against the backing store so concurrent transitions
// on the same visitor cannot both succeed.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusCheckedIn || to == StatusCancelled
	case StatusCheckedIn:
		return to == StatusCheckedOut || to == StatusCancelled
	default:
		return false
	}
}
