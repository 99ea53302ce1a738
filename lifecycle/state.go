package lifecycle

// State tracks a teardown through its phases. Transitions are strictly
// forward: REQUESTED → RELEASING_HANDLES → DELETING → one of the
// terminal states.
type State int

const (
	// StateRequested is the initial state of every teardown.
	StateRequested State = iota

	// StateReleasingHandles means in-process index handles are being
	// closed and the settle interval is running.
	StateReleasingHandles

	// StateDeleting means physical deletion attempts are underway.
	StateDeleting

	// StateDone means the storage directory was physically removed.
	StateDone

	// StateRenamedFallback means deletion failed but the directory was
	// renamed out of the active namespace. The dataset is gone from the
	// system's view; disk space was not reclaimed.
	StateRenamedFallback

	// StateFailed means neither deletion nor rename succeeded.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRequested:
		return "REQUESTED"
	case StateReleasingHandles:
		return "RELEASING_HANDLES"
	case StateDeleting:
		return "DELETING"
	case StateDone:
		return "DONE"
	case StateRenamedFallback:
		return "RENAMED_FALLBACK"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the state ends a teardown.
func (s State) Terminal() bool {
	return s == StateDone || s == StateRenamedFallback || s == StateFailed
}

// Result describes how one storage teardown ended.
type Result struct {
	// Final is the terminal state reached.
	Final State

	// Location is the directory the teardown targeted.
	Location string

	// RenamedTo holds the parked path when Final is StateRenamedFallback.
	RenamedTo string

	// Attempts counts the physical deletion attempts made.
	Attempts int
}

// Reclaimed reports whether the location's disk space was freed.
func (r Result) Reclaimed() bool {
	return r.Final == StateDone
}
