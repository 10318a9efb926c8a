package replay

import "strconv"

// ControlChannelBlock blocks the control channel between a switch and a
// controller. Its precondition is that the connection is not already
// blocked; violating it is a PreconditionError,
// not a NotYet, since it indicates the trace and the live run diverged.
type ControlChannelBlock struct {
	baseEvent
	DPID         int
	ControllerID ControllerID
}

// NewControlChannelBlock constructs a ControlChannelBlock event.
func NewControlChannelBlock(label string, t LogicalTime, dpid int, id ControllerID) *ControlChannelBlock {
	return &ControlChannelBlock{baseEvent: baseEvent{label: label, time: t}, DPID: dpid, ControllerID: id}
}

func (e *ControlChannelBlock) Class() EventClass { return ClassControlChannelBlock }

func (e *ControlChannelBlock) Fingerprint() Fingerprint {
	return Fingerprint{Kind: "control-channel", Key: controlChannelKey(e.DPID, e.ControllerID)}
}

func (e *ControlChannelBlock) Proceed(sim Simulation) (ProceedResult, error) {
	conn, err := sim.ControllerManager().GetConnection(e.DPID, e.ControllerID)
	if err != nil {
		return NotYet, err
	}
	if conn.Blocked() {
		return NotYet, &PreconditionError{Message: "control channel already blocked"}
	}
	conn.SetBlocked(true)
	return Done, nil
}

// ControlChannelUnblock unblocks a previously blocked control channel. Its
// precondition is that the connection is currently blocked; violating it is
// a PreconditionError.
type ControlChannelUnblock struct {
	baseEvent
	DPID         int
	ControllerID ControllerID
}

// NewControlChannelUnblock constructs a ControlChannelUnblock event.
func NewControlChannelUnblock(label string, t LogicalTime, dpid int, id ControllerID) *ControlChannelUnblock {
	return &ControlChannelUnblock{baseEvent: baseEvent{label: label, time: t}, DPID: dpid, ControllerID: id}
}

func (e *ControlChannelUnblock) Class() EventClass { return ClassControlChannelUnblock }

func (e *ControlChannelUnblock) Fingerprint() Fingerprint {
	return Fingerprint{Kind: "control-channel", Key: controlChannelKey(e.DPID, e.ControllerID)}
}

func (e *ControlChannelUnblock) Proceed(sim Simulation) (ProceedResult, error) {
	conn, err := sim.ControllerManager().GetConnection(e.DPID, e.ControllerID)
	if err != nil {
		return NotYet, err
	}
	if !conn.Blocked() {
		return NotYet, &PreconditionError{Message: "control channel already unblocked"}
	}
	conn.SetBlocked(false)
	return Done, nil
}

func controlChannelKey(dpid int, id ControllerID) string {
	return controllerKey(id) + "@" + dpidKey(dpid)
}

// DataplaneDrop drops the buffered data-plane packet matching FP. Returns
// NotYet until the patch panel reports a matching buffered packet.
type DataplaneDrop struct {
	baseEvent
	FP DPFingerprint
}

// NewDataplaneDrop constructs a DataplaneDrop event.
func NewDataplaneDrop(label string, t LogicalTime, fp DPFingerprint) *DataplaneDrop {
	return &DataplaneDrop{baseEvent: baseEvent{label: label, time: t}, FP: fp}
}

func (e *DataplaneDrop) Class() EventClass { return ClassDataplaneDrop }

func (e *DataplaneDrop) Proceed(sim Simulation) (ProceedResult, error) {
	if !sim.PatchPanel().GetBufferedDPEvent(e.FP) {
		return NotYet, nil
	}
	if err := sim.PatchPanel().DropDPEvent(e.FP); err != nil {
		return NotYet, err
	}
	return Done, nil
}

// DataplanePermit lets the buffered data-plane packet matching FP through.
// Returns NotYet until the patch panel reports a matching buffered packet.
type DataplanePermit struct {
	baseEvent
	FP DPFingerprint
}

// NewDataplanePermit constructs a DataplanePermit event.
func NewDataplanePermit(label string, t LogicalTime, fp DPFingerprint) *DataplanePermit {
	return &DataplanePermit{baseEvent: baseEvent{label: label, time: t}, FP: fp}
}

func (e *DataplanePermit) Class() EventClass { return ClassDataplanePermit }

func (e *DataplanePermit) Proceed(sim Simulation) (ProceedResult, error) {
	if !sim.PatchPanel().GetBufferedDPEvent(e.FP) {
		return NotYet, nil
	}
	if err := sim.PatchPanel().PermitDPEvent(e.FP); err != nil {
		return NotYet, err
	}
	return Done, nil
}

// ControlMessageReceive releases, through the [GodScheduler], the oldest
// pending control message matching (DPID, ControllerID, FP). Returns NotYet
// until a matching message is pending.
type ControlMessageReceive struct {
	baseEvent
	DPID         int
	ControllerID ControllerID
	FP           OFFingerprint
}

// NewControlMessageReceive constructs a ControlMessageReceive event.
func NewControlMessageReceive(label string, t LogicalTime, dpid int, id ControllerID, fp OFFingerprint) *ControlMessageReceive {
	return &ControlMessageReceive{baseEvent: baseEvent{label: label, time: t}, DPID: dpid, ControllerID: id, FP: fp}
}

func (e *ControlMessageReceive) Class() EventClass { return ClassControlMessageReceive }

func (e *ControlMessageReceive) Proceed(sim Simulation) (ProceedResult, error) {
	scheduler := sim.GodScheduler()
	if !scheduler.MessageWaiting(dpidKey(e.DPID), controllerKey(e.ControllerID), e.FP) {
		return NotYet, nil
	}
	if _, err := scheduler.Schedule(dpidKey(e.DPID), controllerKey(e.ControllerID), e.FP); err != nil {
		return NotYet, err
	}
	return Done, nil
}

// ControllerStateChange observes that the controller sync callback noticed
// a named piece of controller state change to Value. Returns NotYet until
// the callback reports a matching pending observation.
type ControllerStateChange struct {
	baseEvent
	ControllerID ControllerID
	FP           any
	Name         string
	Value        any
}

// NewControllerStateChange constructs a ControllerStateChange event.
func NewControllerStateChange(label string, t LogicalTime, id ControllerID, fp any, name string, value any) *ControllerStateChange {
	return &ControllerStateChange{
		baseEvent:    baseEvent{label: label, time: t},
		ControllerID: id,
		FP:           fp,
		Name:         name,
		Value:        value,
	}
}

func (e *ControllerStateChange) Class() EventClass { return ClassControllerStateChange }

func (e *ControllerStateChange) pending() PendingStateChange {
	return PendingStateChange{ControllerID: e.ControllerID, Fingerprint: e.FP, Name: e.Name, Value: e.Value}
}

func (e *ControllerStateChange) Proceed(sim Simulation) (ProceedResult, error) {
	cb := sim.ControllerSyncCallback()
	p := e.pending()
	if !cb.StateChangePending(p) {
		return NotYet, nil
	}
	if err := cb.GCPendingStateChange(p); err != nil {
		return NotYet, err
	}
	return Done, nil
}

// DeterministicValue records a value the original recording drew from a
// source of randomness the harness controls (e.g. a random seed draw).
// Replaying it is a no-op: its only role is to appear in the observed
// InternalEvent sequence so that determinism checks can compare runs.
type DeterministicValue struct {
	baseEvent
	Name  string
	Value any
}

// NewDeterministicValue constructs a DeterministicValue event.
func NewDeterministicValue(label string, t LogicalTime, name string, value any) *DeterministicValue {
	return &DeterministicValue{baseEvent: baseEvent{label: label, time: t}, Name: name, Value: value}
}

func (e *DeterministicValue) Class() EventClass { return ClassDeterministicValue }

func (e *DeterministicValue) Proceed(Simulation) (ProceedResult, error) {
	return Done, nil
}

func dpidKey(dpid int) string {
	return strconv.Itoa(dpid)
}
