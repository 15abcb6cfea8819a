package taskmanager

import (
	"fmt"
	"sync"
)

// transition describes one edge in the task status state machine.
type transition[S ~string, E ~string] struct {
	From S
	Event E
	To   S
}

// machine is a small, strict FSM runner: unknown transitions are errors,
// so the monotonicity invariant (pending -> processing -> terminal) is
// enforced structurally rather than by caller discipline.
type machine[S ~string, E ~string] struct {
	mu    sync.Mutex
	state S
	index map[string]transition[S, E]
}

func newMachine[S ~string, E ~string](initial S, transitions []transition[S, E]) (*machine[S, E], error) {
	idx := make(map[string]transition[S, E], len(transitions))
	for _, t := range transitions {
		k := machineKey(t.From, t.Event)
		if _, exists := idx[k]; exists {
			return nil, fmt.Errorf("taskmanager: duplicate transition %s -> %s", t.From, t.Event)
		}
		idx[k] = t
	}
	return &machine[S, E]{state: initial, index: idx}, nil
}

func (m *machine[S, E]) State() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// fire applies event to the machine, returning the new state. It fails if
// no transition exists for (current state, event).
func (m *machine[S, E]) fire(event E) (S, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.state
	t, ok := m.index[machineKey(from, event)]
	if !ok {
		return from, fmt.Errorf("taskmanager: invalid transition: state=%s event=%s", from, event)
	}
	m.state = t.To
	return m.state, nil
}

func machineKey[S ~string, E ~string](from S, event E) string {
	return string(from) + "|" + string(event)
}
