package replay

import "strconv"

// SwitchFailure crashes the switch identified by DPID. Proceed has no
// precondition: it returns Done once the topology has crashed the switch,
// or the topology's error if that fails.
type SwitchFailure struct {
	baseEvent
	DPID int
}

// NewSwitchFailure constructs a SwitchFailure event.
func NewSwitchFailure(label string, t LogicalTime, dpid int) *SwitchFailure {
	return &SwitchFailure{baseEvent: baseEvent{label: label, time: t}, DPID: dpid}
}

func (e *SwitchFailure) Class() EventClass { return ClassSwitchFailure }

func (e *SwitchFailure) Fingerprint() Fingerprint {
	return Fingerprint{Kind: "switch", Key: strconv.Itoa(e.DPID)}
}

func (e *SwitchFailure) Proceed(sim Simulation) (ProceedResult, error) {
	if err := sim.Topology().CrashSwitch(e.DPID); err != nil {
		return NotYet, err
	}
	return Done, nil
}

// SwitchRecovery recovers the switch identified by DPID.
type SwitchRecovery struct {
	baseEvent
	DPID int
}

// NewSwitchRecovery constructs a SwitchRecovery event.
func NewSwitchRecovery(label string, t LogicalTime, dpid int) *SwitchRecovery {
	return &SwitchRecovery{baseEvent: baseEvent{label: label, time: t}, DPID: dpid}
}

func (e *SwitchRecovery) Class() EventClass { return ClassSwitchRecovery }

func (e *SwitchRecovery) Fingerprint() Fingerprint {
	return Fingerprint{Kind: "switch", Key: strconv.Itoa(e.DPID)}
}

func (e *SwitchRecovery) Proceed(sim Simulation) (ProceedResult, error) {
	if err := sim.Topology().RecoverSwitch(e.DPID); err != nil {
		return NotYet, err
	}
	return Done, nil
}

// LinkFailure severs the link from (StartDPID, StartPortNo) to
// (EndDPID, EndPortNo).
type LinkFailure struct {
	baseEvent
	StartDPID, StartPortNo int
	EndDPID, EndPortNo     int
}

// NewLinkFailure constructs a LinkFailure event.
func NewLinkFailure(label string, t LogicalTime, startDPID, startPortNo, endDPID, endPortNo int) *LinkFailure {
	return &LinkFailure{
		baseEvent:   baseEvent{label: label, time: t},
		StartDPID:   startDPID,
		StartPortNo: startPortNo,
		EndDPID:     endDPID,
		EndPortNo:   endPortNo,
	}
}

func (e *LinkFailure) Class() EventClass { return ClassLinkFailure }

func (e *LinkFailure) Fingerprint() Fingerprint {
	return Fingerprint{Kind: "link", Key: linkKey(e.StartDPID, e.StartPortNo, e.EndDPID, e.EndPortNo)}
}

func (e *LinkFailure) Proceed(sim Simulation) (ProceedResult, error) {
	if err := sim.Topology().SeverLink(e.StartDPID, e.StartPortNo, e.EndDPID, e.EndPortNo); err != nil {
		return NotYet, err
	}
	return Done, nil
}

// LinkRecovery repairs the link from (StartDPID, StartPortNo) to
// (EndDPID, EndPortNo).
type LinkRecovery struct {
	baseEvent
	StartDPID, StartPortNo int
	EndDPID, EndPortNo     int
}

// NewLinkRecovery constructs a LinkRecovery event.
func NewLinkRecovery(label string, t LogicalTime, startDPID, startPortNo, endDPID, endPortNo int) *LinkRecovery {
	return &LinkRecovery{
		baseEvent:   baseEvent{label: label, time: t},
		StartDPID:   startDPID,
		StartPortNo: startPortNo,
		EndDPID:     endDPID,
		EndPortNo:   endPortNo,
	}
}

func (e *LinkRecovery) Class() EventClass { return ClassLinkRecovery }

func (e *LinkRecovery) Fingerprint() Fingerprint {
	return Fingerprint{Kind: "link", Key: linkKey(e.StartDPID, e.StartPortNo, e.EndDPID, e.EndPortNo)}
}

func (e *LinkRecovery) Proceed(sim Simulation) (ProceedResult, error) {
	if err := sim.Topology().RepairLink(e.StartDPID, e.StartPortNo, e.EndDPID, e.EndPortNo); err != nil {
		return NotYet, err
	}
	return Done, nil
}

func linkKey(startDPID, startPortNo, endDPID, endPortNo int) string {
	return strconv.Itoa(startDPID) + ":" + strconv.Itoa(startPortNo) + "-" +
		strconv.Itoa(endDPID) + ":" + strconv.Itoa(endPortNo)
}

// ControllerFailure kills the controller identified by ControllerID.
type ControllerFailure struct {
	baseEvent
	ControllerID ControllerID
}

// NewControllerFailure constructs a ControllerFailure event.
func NewControllerFailure(label string, t LogicalTime, id ControllerID) *ControllerFailure {
	return &ControllerFailure{baseEvent: baseEvent{label: label, time: t}, ControllerID: id}
}

func (e *ControllerFailure) Class() EventClass { return ClassControllerFailure }

func (e *ControllerFailure) Fingerprint() Fingerprint {
	return Fingerprint{Kind: "controller", Key: controllerKey(e.ControllerID)}
}

func (e *ControllerFailure) Proceed(sim Simulation) (ProceedResult, error) {
	if err := sim.ControllerManager().KillController(e.ControllerID); err != nil {
		return NotYet, err
	}
	return Done, nil
}

// ControllerRecovery reboots the controller identified by ControllerID.
type ControllerRecovery struct {
	baseEvent
	ControllerID ControllerID
}

// NewControllerRecovery constructs a ControllerRecovery event.
func NewControllerRecovery(label string, t LogicalTime, id ControllerID) *ControllerRecovery {
	return &ControllerRecovery{baseEvent: baseEvent{label: label, time: t}, ControllerID: id}
}

func (e *ControllerRecovery) Class() EventClass { return ClassControllerRecovery }

func (e *ControllerRecovery) Fingerprint() Fingerprint {
	return Fingerprint{Kind: "controller", Key: controllerKey(e.ControllerID)}
}

func (e *ControllerRecovery) Proceed(sim Simulation) (ProceedResult, error) {
	if err := sim.ControllerManager().RebootController(e.ControllerID); err != nil {
		return NotYet, err
	}
	return Done, nil
}

func controllerKey(id ControllerID) string {
	return id.Host + ":" + strconv.Itoa(id.Port)
}

// HostMigration moves a host's access link from one ingress point to
// another. It has no fingerprint: there is no matching recovery kind.
type HostMigration struct {
	baseEvent
	OldIngressDPID, OldIngressPortNo int
	NewIngressDPID, NewIngressPortNo int
}

// NewHostMigration constructs a HostMigration event.
func NewHostMigration(label string, t LogicalTime, oldDPID, oldPort, newDPID, newPort int) *HostMigration {
	return &HostMigration{
		baseEvent:        baseEvent{label: label, time: t},
		OldIngressDPID:   oldDPID,
		OldIngressPortNo: oldPort,
		NewIngressDPID:   newDPID,
		NewIngressPortNo: newPort,
	}
}

func (e *HostMigration) Class() EventClass { return ClassHostMigration }

func (e *HostMigration) Proceed(sim Simulation) (ProceedResult, error) {
	if err := sim.Topology().MigrateHost(e.OldIngressDPID, e.OldIngressPortNo, e.NewIngressDPID, e.NewIngressPortNo); err != nil {
		return NotYet, err
	}
	return Done, nil
}

// PolicyChange requests a policy change of RequestType. Its effect is
// entirely owned by the out-of-scope controller/topology collaborators;
// the core only records that the request occurred.
type PolicyChange struct {
	baseEvent
	RequestType string
}

// NewPolicyChange constructs a PolicyChange event.
func NewPolicyChange(label string, t LogicalTime, requestType string) *PolicyChange {
	return &PolicyChange{baseEvent: baseEvent{label: label, time: t}, RequestType: requestType}
}

func (e *PolicyChange) Class() EventClass { return ClassPolicyChange }

func (e *PolicyChange) Proceed(Simulation) (ProceedResult, error) {
	return Done, nil
}

// TrafficInjection injects the next packet from the configured dataplane
// trace. Its precondition is that a trace was configured at all; absent
// one, Proceed fails with a PreconditionError.
type TrafficInjection struct {
	baseEvent
}

// NewTrafficInjection constructs a TrafficInjection event.
func NewTrafficInjection(label string, t LogicalTime) *TrafficInjection {
	return &TrafficInjection{baseEvent: baseEvent{label: label, time: t}}
}

func (e *TrafficInjection) Class() EventClass { return ClassTrafficInjection }

func (e *TrafficInjection) Proceed(sim Simulation) (ProceedResult, error) {
	trace := sim.DataplaneTrace()
	if trace == nil {
		return NotYet, &PreconditionError{Message: "traffic injection: no dataplane trace configured"}
	}
	if err := trace.InjectTraceEvent(); err != nil {
		return NotYet, err
	}
	return Done, nil
}

// WaitTime delays the replay by WaitSeconds of logical time. The driver
// does not sleep on the wall clock for this; the delay is purely a gap in
// the trace's logical timeline.
type WaitTime struct {
	baseEvent
	WaitSeconds float64
}

// NewWaitTime constructs a WaitTime event.
func NewWaitTime(label string, t LogicalTime, waitSeconds float64) *WaitTime {
	return &WaitTime{baseEvent: baseEvent{label: label, time: t}, WaitSeconds: waitSeconds}
}

func (e *WaitTime) Class() EventClass { return ClassWaitTime }

func (e *WaitTime) Proceed(Simulation) (ProceedResult, error) {
	return Done, nil
}

// CheckInvariants runs the named invariant check (or the checker's default
// set, when InvariantCheck is empty). If it reports violations and
// FailOnError is set, Proceed returns an *InvariantViolationError, which
// ends [Driver.Run] with that error.
type CheckInvariants struct {
	baseEvent
	FailOnError    bool
	InvariantCheck string
}

// NewCheckInvariants constructs a CheckInvariants event.
func NewCheckInvariants(label string, t LogicalTime, failOnError bool, invariantCheck string) *CheckInvariants {
	return &CheckInvariants{
		baseEvent:      baseEvent{label: label, time: t},
		FailOnError:    failOnError,
		InvariantCheck: invariantCheck,
	}
}

func (e *CheckInvariants) Class() EventClass { return ClassCheckInvariants }

func (e *CheckInvariants) Proceed(sim Simulation) (ProceedResult, error) {
	violations, err := sim.InvariantChecker().CheckInvariants(e.InvariantCheck)
	if err != nil {
		return NotYet, err
	}
	if len(violations) > 0 && e.FailOnError {
		return Done, &InvariantViolationError{Violations: violations}
	}
	return Done, nil
}
