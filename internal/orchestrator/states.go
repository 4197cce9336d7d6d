package orchestrator

// State represents the current phase of the startup sequence.
type State int

const (
	StateAwaitingDeps State = iota // probing declared dependencies
	StateMigrating                 // migration runner in flight
	StateSeeding                   // optional seed step in flight

	// Terminal states
	StateReady  // startup complete, application may start
	StateFailed // startup aborted
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateAwaitingDeps:
		return "awaiting_deps"
	case StateMigrating:
		return "migrating"
	case StateSeeding:
		return "seeding"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the machine stops in this state.
func (s State) Terminal() bool {
	return s == StateReady || s == StateFailed
}
