package replay

// Simulation is the narrow capability set the event model (C2) and the
// replay driver (C6) depend on. Every concrete collaborator — topology,
// controller lifecycle, patch panel, God Scheduler, controller sync
// callback, and the optional dataplane trace — is out of scope for this
// module: production wiring supplies concrete implementations; the core
// only ever calls through these interfaces.
type Simulation interface {
	Topology() Topology
	ControllerManager() ControllerManager
	PatchPanel() PatchPanel
	GodScheduler() *GodScheduler
	ControllerSyncCallback() ControllerSyncCallback
	// DataplaneTrace returns nil when no trace was configured for this run;
	// TrafficInjection's precondition fails in that case.
	DataplaneTrace() DataplaneTrace
	InvariantChecker() InvariantChecker
	// Cleanup is invoked by the driver exactly once, on normal completion
	// or on abort.
	Cleanup() error
}

// Topology is the subset of network-model operations InputEvents drive.
type Topology interface {
	CrashSwitch(dpid int) error
	RecoverSwitch(dpid int) error
	SeverLink(startDPID, startPortNo, endDPID, endPortNo int) error
	RepairLink(startDPID, startPortNo, endDPID, endPortNo int) error
	MigrateHost(oldDPID, oldPortNo, newDPID, newPortNo int) error
}

// ControllerManager is the subset of controller-process lifecycle
// operations InputEvents and the ControlChannel InternalEvents drive.
type ControllerManager interface {
	KillController(id ControllerID) error
	RebootController(id ControllerID) error
	// GetConnection looks up the InterceptedConnection for one
	// switch/controller pair, used by ControlChannelBlock/Unblock.
	GetConnection(dpid int, id ControllerID) (*InterceptedConnection, error)
}

// PatchPanel is the buffer of in-flight data-plane packets that
// DataplaneDrop/DataplanePermit consult.
type PatchPanel interface {
	// GetBufferedDPEvent reports whether a packet matching fp is currently
	// buffered, awaiting a drop/permit decision.
	GetBufferedDPEvent(fp DPFingerprint) (found bool)
	DropDPEvent(fp DPFingerprint) error
	PermitDPEvent(fp DPFingerprint) error
}

// PendingStateChange is the observation ControllerStateChange looks for:
// the sync callback noticing that a controller's internal state changed.
type PendingStateChange struct {
	ControllerID ControllerID
	Fingerprint  any
	Name         string
	Value        any
}

// ControllerSyncCallback is consulted by ControllerStateChange.
type ControllerSyncCallback interface {
	StateChangePending(p PendingStateChange) bool
	GCPendingStateChange(p PendingStateChange) error
}

// DataplaneTrace is the optional source of injected traffic for
// TrafficInjection events.
type DataplaneTrace interface {
	InjectTraceEvent() error
}

// InvariantChecker runs whatever invariant checks CheckInvariants names.
// It returns the list of violation descriptions, empty when none fired.
type InvariantChecker interface {
	CheckInvariants(name string) (violations []string, err error)
}

// InvariantViolationError is returned by CheckInvariants.Proceed when
// fail_on_error is set and the checker reported violations. [Driver.Run]
// returns it unchanged; this package defines no process exit codes.
type InvariantViolationError struct {
	Violations []string
}

func (e *InvariantViolationError) Error() string {
	msg := "replay: invariant violations: "
	for i, v := range e.Violations {
		if i > 0 {
			msg += "; "
		}
		msg += v
	}
	return msg
}
