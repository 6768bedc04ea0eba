package engine

// State describes where an engine is in its lifecycle. Transitions are strictly
// forward: Created -> Running -> Stopping -> Stopped.
type State int32

const (
	// StateCreated is the initial state: configured but no workers running.
	StateCreated State = iota

	// StateRunning means workers are processing and Submit is accepted.
	StateRunning

	// StateStopping means a stop has been requested; no new submissions.
	StateStopping

	// StateStopped means all workers have joined. Results already published
	// remain retrievable.
	StateStopped
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
