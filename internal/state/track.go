package state

import (
	"fmt"

	"github.com/google/uuid"
)

// Track is an ordered history of belief states for a single object.
// Insertion order is chronological by convention but reversible; the
// smoother emits ascending-time tracks regardless of how it walked them.
type Track struct {
	// ID is a globally unique track identifier. Uniqueness across process
	// restarts matters once tracks leave the process, so UUIDs rather
	// than counters.
	ID string

	states []Smoothable
}

// NewTrack creates a track holding the given states in order.
func NewTrack(states ...Smoothable) *Track {
	t := &Track{ID: fmt.Sprintf("trk_%s", uuid.NewString())}
	t.states = append(t.states, states...)
	return t
}

// Append adds a state to the end of the track.
func (t *Track) Append(s Smoothable) { t.states = append(t.states, s) }

// Len returns the number of states in the track.
func (t *Track) Len() int { return len(t.states) }

// At returns the state at index i.
func (t *Track) At(i int) Smoothable { return t.states[i] }

// Last returns the final state, or nil for an empty track.
func (t *Track) Last() Smoothable {
	if len(t.states) == 0 {
		return nil
	}
	return t.states[len(t.states)-1]
}

// States returns a copy of the element slice. The elements themselves are
// shared (they are immutable).
func (t *Track) States() []Smoothable {
	out := make([]Smoothable, len(t.states))
	copy(out, t.states)
	return out
}

// Reverse flips the element order in place.
func (t *Track) Reverse() {
	for i, j := 0, len(t.states)-1; i < j; i, j = i+1, j-1 {
		t.states[i], t.states[j] = t.states[j], t.states[i]
	}
}

// ValidateChronology checks that consecutive timestamps are strictly
// monotonic in one direction (either ascending or descending throughout).
func (t *Track) ValidateChronology() error {
	if len(t.states) < 2 {
		return nil
	}
	first := t.states[1].Timestamp().Sub(t.states[0].Timestamp())
	if first == 0 {
		return fmt.Errorf("track %s: duplicate timestamp at index 1", t.ID)
	}
	ascending := first > 0
	for i := 2; i < len(t.states); i++ {
		d := t.states[i].Timestamp().Sub(t.states[i-1].Timestamp())
		if d == 0 || (d > 0) != ascending {
			return fmt.Errorf("track %s: timestamps not strictly monotonic at index %d", t.ID, i)
		}
	}
	return nil
}
