package query

// Slot is one entry of a Query's per-step state arena. It lives as long as
// the Query, so state survives repeated runs.
type Slot struct {
	state any
}

// SlotState returns the slot's state as *T, creating a zero T on first use.
// State of another type is replaced.
func SlotState[T any](slot *Slot) *T {
	if st, ok := slot.state.(*T); ok {
		return st
	}
	st := new(T)
	slot.state = st
	return st
}

// Reset drops the slot's state.
func (s *Slot) Reset() { s.state = nil }
