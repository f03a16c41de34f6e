package exporter

import "errors"

var ErrInvalidTransition = errors.New("invalid state transition")

type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// transitions is the export lifecycle. running -> idle is the passive
// staleness reset performed by readers, not by the engine.
var transitions = map[State]map[State]struct{}{
	StateIdle: {
		StateRunning: {},
	},
	StateRunning: {
		StateCompleted: {},
		StateFailed:    {},
		StateIdle:      {},
	},
	StateCompleted: {
		StateRunning: {},
	},
	StateFailed: {
		StateRunning: {},
	},
}

func CanTransition(from, to State) bool {
	if _, ok := transitions[from][to]; ok {
		return true
	}
	return false
}
