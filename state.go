package replay

import "sync/atomic"

// DriverState represents the current state of a [Driver].
//
// State machine:
//
//	StateIdle (0) → StateRunning (1)      [Run() starts]
//	StateRunning (1) → StateAborting (2)  [AbortController.Abort()]
//	StateRunning (1) → StateDone (3)      [DAG exhausted]
//	StateAborting (2) → StateDone (3)     [cleanup invoked]
//	StateDone (3) → (terminal)
//
// Use TryTransition (CAS) for the temporary Running/Aborting states; use
// Store only for the terminal Done transition, which has no competing
// writer.
type DriverState uint32

const (
	// StateIdle indicates a Driver has been constructed but Run has not
	// been called.
	StateIdle DriverState = iota
	// StateRunning indicates the driver is walking the Event DAG.
	StateRunning
	// StateAborting indicates an abort was observed and cleanup is in
	// progress.
	StateAborting
	// StateDone indicates the driver has returned from Run.
	StateDone
)

// String returns a human-readable representation of the state.
func (s DriverState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateAborting:
		return "Aborting"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// driverStateMachine is a lock-free state machine guarding the single
// cooperative replay loop's lifecycle transitions.
type driverStateMachine struct {
	v atomic.Uint32
}

func newDriverStateMachine() *driverStateMachine {
	return &driverStateMachine{}
}

// Load returns the current state atomically.
func (s *driverStateMachine) Load() DriverState {
	return DriverState(s.v.Load())
}

// TryTransition attempts to atomically move from one state to another,
// reporting whether it won the race.
func (s *driverStateMachine) TryTransition(from, to DriverState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}

// Store unconditionally sets the state; used only for the terminal
// transition to StateDone, which has no competing writer.
func (s *driverStateMachine) Store(state DriverState) {
	s.v.Store(uint32(state))
}
