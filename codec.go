package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// wireEvent is the JSON-object shape every event marshals to and unmarshals
// from: a flat superset of every subtype's extra keys, all optional except
// the three mandatory ones (class, label, time); dependent_labels may be
// omitted and then decodes as empty. Using one
// struct with stdlib encoding/json, rather than jsonenc's low-level scalar
// appenders, keeps class dispatch and field validation in one place; see
// DESIGN.md for why jsonenc does not fit here.
type wireEvent struct {
	Class           EventClass `json:"class"`
	Label           string     `json:"label"`
	Time            *[2]int64  `json:"time"`
	DependentLabels []string   `json:"dependent_labels,omitempty"`

	DPID             *int            `json:"dpid,omitempty"`
	StartDPID        *int            `json:"start_dpid,omitempty"`
	StartPortNo      *int            `json:"start_port_no,omitempty"`
	EndDPID          *int            `json:"end_dpid,omitempty"`
	EndPortNo        *int            `json:"end_port_no,omitempty"`
	ControllerID     *wireController `json:"controller_id,omitempty"`
	OldIngressDPID   *int            `json:"old_ingress_dpid,omitempty"`
	OldIngressPortNo *int            `json:"old_ingress_port_no,omitempty"`
	NewIngressDPID   *int            `json:"new_ingress_dpid,omitempty"`
	NewIngressPortNo *int            `json:"new_ingress_port_no,omitempty"`
	RequestType      *string         `json:"request_type,omitempty"`
	WaitTime         *float64        `json:"wait_time,omitempty"`
	FailOnError      *bool           `json:"fail_on_error,omitempty"`
	InvariantCheck   *string         `json:"invariant_check,omitempty"`
	Fingerprint      json.RawMessage `json:"fingerprint,omitempty"`
	Name             *string         `json:"name,omitempty"`
	Value            json.RawMessage `json:"value,omitempty"`
}

// wireController is the [string, host port] two-element array the spec's
// wire format uses for controller_id.
type wireController [2]any

func controllerToWire(id ControllerID) *wireController {
	return &wireController{id.Host, float64(id.Port)}
}

func controllerFromWire(w *wireController) (ControllerID, error) {
	if w == nil {
		return ControllerID{}, &StructuralError{Message: "missing controller_id"}
	}
	host, ok := w[0].(string)
	if !ok {
		return ControllerID{}, &StructuralError{Message: "controller_id[0] must be a string"}
	}
	port, ok := w[1].(float64)
	if !ok {
		return ControllerID{}, &StructuralError{Message: "controller_id[1] must be a number"}
	}
	return ControllerID{Host: host, Port: int(port)}, nil
}

type wireDPFingerprint struct {
	SrcMAC      string `json:"src_mac"`
	DstMAC      string `json:"dst_mac"`
	EtherType   string `json:"ethertype"`
	SrcIP       string `json:"ip_src"`
	DstIP       string `json:"ip_dst"`
	Proto       string `json:"proto"`
	PayloadHash string `json:"payload_hash"`
}

func dpFingerprintToWire(fp DPFingerprint) wireDPFingerprint {
	return wireDPFingerprint{fp.SrcMAC, fp.DstMAC, fp.EtherType, fp.SrcIP, fp.DstIP, fp.Proto, fp.PayloadHash}
}

func dpFingerprintFromWire(w wireDPFingerprint) DPFingerprint {
	return DPFingerprint{SrcMAC: w.SrcMAC, DstMAC: w.DstMAC, EtherType: w.EtherType, SrcIP: w.SrcIP, DstIP: w.DstIP, Proto: w.Proto, PayloadHash: w.PayloadHash}
}

type wireOFFingerprint struct {
	MessageType string `json:"message_type"`
	Key         string `json:"key"`
}

func ofFingerprintToWire(fp OFFingerprint) wireOFFingerprint {
	return wireOFFingerprint{fp.MessageType, fp.Key}
}

func ofFingerprintFromWire(w wireOFFingerprint) OFFingerprint {
	return OFFingerprint{MessageType: w.MessageType, Key: w.Key}
}

// EncodeEvent marshals a single event to its wireEvent JSON form.
func EncodeEvent(e Event) ([]byte, error) {
	w := wireEvent{
		Class:           e.Class(),
		Label:           e.Label(),
		Time:            &[2]int64{e.Time().Seconds, e.Time().Microseconds},
		DependentLabels: e.DependentLabels(),
	}

	switch v := e.(type) {
	case *SwitchFailure:
		w.DPID = &v.DPID
	case *SwitchRecovery:
		w.DPID = &v.DPID
	case *LinkFailure:
		w.StartDPID, w.StartPortNo, w.EndDPID, w.EndPortNo = &v.StartDPID, &v.StartPortNo, &v.EndDPID, &v.EndPortNo
	case *LinkRecovery:
		w.StartDPID, w.StartPortNo, w.EndDPID, w.EndPortNo = &v.StartDPID, &v.StartPortNo, &v.EndDPID, &v.EndPortNo
	case *ControllerFailure:
		w.ControllerID = controllerToWire(v.ControllerID)
	case *ControllerRecovery:
		w.ControllerID = controllerToWire(v.ControllerID)
	case *HostMigration:
		w.OldIngressDPID, w.OldIngressPortNo = &v.OldIngressDPID, &v.OldIngressPortNo
		w.NewIngressDPID, w.NewIngressPortNo = &v.NewIngressDPID, &v.NewIngressPortNo
	case *PolicyChange:
		w.RequestType = &v.RequestType
	case *TrafficInjection:
		// no extra keys
	case *WaitTime:
		w.WaitTime = &v.WaitSeconds
	case *CheckInvariants:
		w.FailOnError = &v.FailOnError
		w.InvariantCheck = &v.InvariantCheck
	case *ControlChannelBlock:
		w.DPID, w.ControllerID = &v.DPID, controllerToWire(v.ControllerID)
	case *ControlChannelUnblock:
		w.DPID, w.ControllerID = &v.DPID, controllerToWire(v.ControllerID)
	case *DataplaneDrop:
		raw, err := json.Marshal(dpFingerprintToWire(v.FP))
		if err != nil {
			return nil, err
		}
		w.Fingerprint = raw
	case *DataplanePermit:
		raw, err := json.Marshal(dpFingerprintToWire(v.FP))
		if err != nil {
			return nil, err
		}
		w.Fingerprint = raw
	case *ControlMessageReceive:
		w.DPID, w.ControllerID = &v.DPID, controllerToWire(v.ControllerID)
		raw, err := json.Marshal(ofFingerprintToWire(v.FP))
		if err != nil {
			return nil, err
		}
		w.Fingerprint = raw
	case *ControllerStateChange:
		w.ControllerID = controllerToWire(v.ControllerID)
		w.Name = &v.Name
		raw, err := json.Marshal(v.Value)
		if err != nil {
			return nil, err
		}
		w.Value = raw
		raw, err = json.Marshal(v.FP)
		if err != nil {
			return nil, err
		}
		w.Fingerprint = raw
	case *DeterministicValue:
		w.Name = &v.Name
		raw, err := json.Marshal(v.Value)
		if err != nil {
			return nil, err
		}
		w.Value = raw
	default:
		return nil, &StructuralError{Message: fmt.Sprintf("codec: unknown event type %T", e)}
	}

	return json.Marshal(w)
}

// DecodeEvent unmarshals one wireEvent-shaped JSON object, dispatching on
// the class tag. It rejects unknown classes and missing mandatory
// per-subtype fields with a *StructuralError.
func DecodeEvent(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &StructuralError{Message: "malformed event JSON", Cause: err}
	}
	if w.Label == "" {
		return nil, &StructuralError{Message: "event missing label"}
	}
	if w.Time == nil {
		return nil, &StructuralError{Message: "event " + w.Label + " missing field time"}
	}
	t := LogicalTime{Seconds: w.Time[0], Microseconds: w.Time[1]}

	need := func(p *int, field string) (int, error) {
		if p == nil {
			return 0, &StructuralError{Message: "event " + w.Label + " missing field " + field}
		}
		return *p, nil
	}

	switch w.Class {
	case ClassSwitchFailure:
		dpid, err := need(w.DPID, "dpid")
		if err != nil {
			return nil, err
		}
		e := NewSwitchFailure(w.Label, t, dpid)
		e.dependentLabels = w.DependentLabels
		return e, nil
	case ClassSwitchRecovery:
		dpid, err := need(w.DPID, "dpid")
		if err != nil {
			return nil, err
		}
		e := NewSwitchRecovery(w.Label, t, dpid)
		e.dependentLabels = w.DependentLabels
		return e, nil
	case ClassLinkFailure, ClassLinkRecovery:
		sd, err := need(w.StartDPID, "start_dpid")
		if err != nil {
			return nil, err
		}
		sp, err := need(w.StartPortNo, "start_port_no")
		if err != nil {
			return nil, err
		}
		ed, err := need(w.EndDPID, "end_dpid")
		if err != nil {
			return nil, err
		}
		ep, err := need(w.EndPortNo, "end_port_no")
		if err != nil {
			return nil, err
		}
		if w.Class == ClassLinkFailure {
			e := NewLinkFailure(w.Label, t, sd, sp, ed, ep)
			e.dependentLabels = w.DependentLabels
			return e, nil
		}
		e := NewLinkRecovery(w.Label, t, sd, sp, ed, ep)
		e.dependentLabels = w.DependentLabels
		return e, nil
	case ClassControllerFailure, ClassControllerRecovery:
		id, err := controllerFromWire(w.ControllerID)
		if err != nil {
			return nil, err
		}
		if w.Class == ClassControllerFailure {
			e := NewControllerFailure(w.Label, t, id)
			e.dependentLabels = w.DependentLabels
			return e, nil
		}
		e := NewControllerRecovery(w.Label, t, id)
		e.dependentLabels = w.DependentLabels
		return e, nil
	case ClassHostMigration:
		od, err := need(w.OldIngressDPID, "old_ingress_dpid")
		if err != nil {
			return nil, err
		}
		op, err := need(w.OldIngressPortNo, "old_ingress_port_no")
		if err != nil {
			return nil, err
		}
		nd, err := need(w.NewIngressDPID, "new_ingress_dpid")
		if err != nil {
			return nil, err
		}
		np, err := need(w.NewIngressPortNo, "new_ingress_port_no")
		if err != nil {
			return nil, err
		}
		e := NewHostMigration(w.Label, t, od, op, nd, np)
		e.dependentLabels = w.DependentLabels
		return e, nil
	case ClassPolicyChange:
		if w.RequestType == nil {
			return nil, &StructuralError{Message: "event " + w.Label + " missing field request_type"}
		}
		e := NewPolicyChange(w.Label, t, *w.RequestType)
		e.dependentLabels = w.DependentLabels
		return e, nil
	case ClassTrafficInjection:
		e := NewTrafficInjection(w.Label, t)
		e.dependentLabels = w.DependentLabels
		return e, nil
	case ClassWaitTime:
		if w.WaitTime == nil {
			return nil, &StructuralError{Message: "event " + w.Label + " missing field wait_time"}
		}
		e := NewWaitTime(w.Label, t, *w.WaitTime)
		e.dependentLabels = w.DependentLabels
		return e, nil
	case ClassCheckInvariants:
		failOnError := w.FailOnError != nil && *w.FailOnError
		invariantCheck := ""
		if w.InvariantCheck != nil {
			invariantCheck = *w.InvariantCheck
		}
		e := NewCheckInvariants(w.Label, t, failOnError, invariantCheck)
		e.dependentLabels = w.DependentLabels
		return e, nil
	case ClassControlChannelBlock, ClassControlChannelUnblock:
		dpid, err := need(w.DPID, "dpid")
		if err != nil {
			return nil, err
		}
		id, err := controllerFromWire(w.ControllerID)
		if err != nil {
			return nil, err
		}
		if w.Class == ClassControlChannelBlock {
			e := NewControlChannelBlock(w.Label, t, dpid, id)
			e.dependentLabels = w.DependentLabels
			return e, nil
		}
		e := NewControlChannelUnblock(w.Label, t, dpid, id)
		e.dependentLabels = w.DependentLabels
		return e, nil
	case ClassDataplaneDrop, ClassDataplanePermit:
		if w.Fingerprint == nil {
			return nil, &StructuralError{Message: "event " + w.Label + " missing field fingerprint"}
		}
		var wfp wireDPFingerprint
		if err := json.Unmarshal(w.Fingerprint, &wfp); err != nil {
			return nil, &StructuralError{Message: "event " + w.Label + " malformed fingerprint", Cause: err}
		}
		fp := dpFingerprintFromWire(wfp)
		if w.Class == ClassDataplaneDrop {
			e := NewDataplaneDrop(w.Label, t, fp)
			e.dependentLabels = w.DependentLabels
			return e, nil
		}
		e := NewDataplanePermit(w.Label, t, fp)
		e.dependentLabels = w.DependentLabels
		return e, nil
	case ClassControlMessageReceive:
		dpid, err := need(w.DPID, "dpid")
		if err != nil {
			return nil, err
		}
		id, err := controllerFromWire(w.ControllerID)
		if err != nil {
			return nil, err
		}
		if w.Fingerprint == nil {
			return nil, &StructuralError{Message: "event " + w.Label + " missing field fingerprint"}
		}
		var wfp wireOFFingerprint
		if err := json.Unmarshal(w.Fingerprint, &wfp); err != nil {
			return nil, &StructuralError{Message: "event " + w.Label + " malformed fingerprint", Cause: err}
		}
		e := NewControlMessageReceive(w.Label, t, dpid, id, ofFingerprintFromWire(wfp))
		e.dependentLabels = w.DependentLabels
		return e, nil
	case ClassControllerStateChange:
		id, err := controllerFromWire(w.ControllerID)
		if err != nil {
			return nil, err
		}
		if w.Name == nil {
			return nil, &StructuralError{Message: "event " + w.Label + " missing field name"}
		}
		var value any
		if w.Value != nil {
			if err := json.Unmarshal(w.Value, &value); err != nil {
				return nil, &StructuralError{Message: "event " + w.Label + " malformed value", Cause: err}
			}
		}
		var fp any
		if w.Fingerprint != nil {
			if err := json.Unmarshal(w.Fingerprint, &fp); err != nil {
				return nil, &StructuralError{Message: "event " + w.Label + " malformed fingerprint", Cause: err}
			}
		}
		e := NewControllerStateChange(w.Label, t, id, fp, *w.Name, value)
		e.dependentLabels = w.DependentLabels
		return e, nil
	case ClassDeterministicValue:
		if w.Name == nil {
			return nil, &StructuralError{Message: "event " + w.Label + " missing field name"}
		}
		var value any
		if w.Value != nil {
			if err := json.Unmarshal(w.Value, &value); err != nil {
				return nil, &StructuralError{Message: "event " + w.Label + " malformed value", Cause: err}
			}
		}
		e := NewDeterministicValue(w.Label, t, *w.Name, value)
		e.dependentLabels = w.DependentLabels
		return e, nil
	default:
		return nil, &StructuralError{Message: "unknown event class " + string(w.Class)}
	}
}

// DecodeTrace reads a newline-delimited stream of event JSON objects.
func DecodeTrace(r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var events []Event
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		e, err := DecodeEvent(line)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, &StructuralError{Message: "failed to read trace", Cause: err}
	}
	return events, nil
}

// EncodeTrace writes events as a newline-delimited stream of JSON objects.
func EncodeTrace(w io.Writer, events []Event) error {
	bw := bufio.NewWriter(w)
	for _, e := range events {
		data, err := EncodeEvent(e)
		if err != nil {
			return err
		}
		if _, err := bw.Write(data); err != nil {
			return err
		}
		if _, err := bw.Write([]byte{'\n'}); err != nil {
			return err
		}
	}
	return bw.Flush()
}
