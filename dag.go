package replay

// DefaultPeekSeconds is the slack peek() adds to the next event's logical
// time to compute a per-event wait deadline.
const DefaultPeekSeconds = 10.0

// EventDAG is an ordered sequence of Events plus label→event and
// event→position indices. It is not a general graph: dependencies are
// represented only via each event's DependentLabels list. The DAG is the
// only mutable container in the core; Events themselves are immutable once
// recorded (DependentLabels is appended to exactly once, during
// construction's invalid-input marking).
type EventDAG struct {
	events      []Event
	byLabel     map[string]Event
	position    map[string]int
	waitTimes   map[string]LogicalTime
	peekSeconds float64
	isView      bool
}

// EventDAGOption configures a new EventDAG.
type EventDAGOption interface {
	applyEventDAG(*eventDAGOptions)
}

type eventDAGOptions struct {
	peekSeconds float64
}

type eventDAGOptionFunc func(*eventDAGOptions)

func (f eventDAGOptionFunc) applyEventDAG(opts *eventDAGOptions) { f(opts) }

// WithPeekSeconds overrides peek()'s default slack (see DefaultPeekSeconds),
// mainly useful for tests that want short wall-clock deadlines instead of
// waiting out the production default.
func WithPeekSeconds(seconds float64) EventDAGOption {
	return eventDAGOptionFunc(func(opts *eventDAGOptions) { opts.peekSeconds = seconds })
}

// NewEventDAG constructs a DAG from an ordered event list, running
// invalid-input marking (recovery pairing) and then peek(). Only views
// (see IgnorePortion) skip the marking; every DAG runs peek().
func NewEventDAG(events []Event, opts ...EventDAGOption) (*EventDAG, error) {
	cfg := eventDAGOptions{peekSeconds: DefaultPeekSeconds}
	for _, opt := range opts {
		opt.applyEventDAG(&cfg)
	}
	return newEventDAG(events, cfg.peekSeconds, false)
}

func newEventDAG(events []Event, peekSeconds float64, view bool) (*EventDAG, error) {
	d := &EventDAG{
		byLabel:     make(map[string]Event, len(events)),
		position:    make(map[string]int, len(events)),
		peekSeconds: peekSeconds,
		isView:      view,
	}
	for i, e := range events {
		if _, dup := d.byLabel[e.Label()]; dup {
			return nil, &StructuralError{Message: "duplicate event label " + e.Label()}
		}
		d.byLabel[e.Label()] = e
		d.position[e.Label()] = i
	}
	d.events = append([]Event(nil), events...)

	if !view {
		d.markInvalidInputSequences()
	}
	d.peek()
	return d, nil
}

// markInvalidInputSequences implements recovery pairing: for each recovery
// InputEvent whose fingerprint matches a previously seen failure of the
// matching kind, appends the recovery's label to the failure's
// DependentLabels.
func (d *EventDAG) markInvalidInputSequences() {
	lastFailure := make(map[Fingerprint]FingerprintedEvent)

	for _, e := range d.events {
		fe, ok := e.(FingerprintedEvent)
		if !ok {
			continue
		}
		class := e.Class()

		if IsRecoveryClass(class) {
			fp := fe.Fingerprint()
			if failure, ok := lastFailure[fp]; ok {
				failure.addDependentLabel(e.Label())
				delete(lastFailure, fp)
			}
			continue
		}
		if isFailureClass(class) {
			lastFailure[fe.Fingerprint()] = fe
		}
	}
}

// isFailureClass reports whether class is one of the failure kinds that
// recoveries pair against.
func isFailureClass(class EventClass) bool {
	for _, failure := range recoveryToFailure {
		if failure == class {
			return true
		}
	}
	return false
}

// Events returns the DAG's ordered event view. The returned slice must not
// be mutated by the caller.
func (d *EventDAG) Events() []Event {
	return d.events
}

// Len returns the number of events currently in the DAG.
func (d *EventDAG) Len() int {
	return len(d.events)
}

// Lookup returns the event with the given label, if present.
func (d *EventDAG) Lookup(label string) (Event, bool) {
	e, ok := d.byLabel[label]
	return e, ok
}

// Position returns the (dense, monotone) index of the event with the given
// label.
func (d *EventDAG) Position(label string) (int, bool) {
	p, ok := d.position[label]
	return p, ok
}

// WaitTime returns the peek-derived deadline for the event with the given
// label.
func (d *EventDAG) WaitTime(label string) (LogicalTime, bool) {
	wt, ok := d.waitTimes[label]
	return wt, ok
}

// Remove mutates the DAG in place: for each event in the given set that is
// an InputEvent and not a recovery kind, recursively removes it together
// with every event transitively reachable via DependentLabels. Position
// indices are rebuilt to remain dense. Remove reruns peek() afterward.
func (d *EventDAG) Remove(labels []string) {
	toRemove := make(map[string]bool)
	var collect func(label string)
	collect = func(label string) {
		if toRemove[label] {
			return
		}
		e, ok := d.byLabel[label]
		if !ok {
			return
		}
		toRemove[label] = true
		for _, dep := range e.DependentLabels() {
			collect(dep)
		}
	}

	for _, label := range labels {
		e, ok := d.byLabel[label]
		if !ok {
			continue
		}
		if !IsInputClass(e.Class()) || IsRecoveryClass(e.Class()) {
			continue
		}
		collect(label)
	}

	if len(toRemove) == 0 {
		return
	}

	remaining := d.events[:0:0]
	for _, e := range d.events {
		if !toRemove[e.Label()] {
			remaining = append(remaining, e)
		}
	}
	d.events = remaining

	d.byLabel = make(map[string]Event, len(d.events))
	d.position = make(map[string]int, len(d.events))
	for i, e := range d.events {
		d.byLabel[e.Label()] = e
		d.position[e.Label()] = i
	}

	d.peek()
}

// IgnorePortion returns a fresh DAG, marked as a view, with Remove(labels)
// applied. It does not mutate the receiver.
func (d *EventDAG) IgnorePortion(labels []string) (*EventDAG, error) {
	view, err := newEventDAG(d.events, d.peekSeconds, true)
	if err != nil {
		return nil, err
	}
	// A view skips invalid-input marking on construction, but DependentLabels
	// were already populated on the original (immutable) Event values, so
	// recovery pairing still holds for the copy.
	view.Remove(labels)
	return view, nil
}

// SplitInputs partitions the ordered event list into k contiguous,
// non-empty slices: the first len(events) % k slices (if any) get one
// extra element, i.e. contiguous chunks of size ceil(n/k) followed by
// chunks of size floor(n/k), which guarantees exactly k non-empty slices
// whenever 1 ≤ k ≤ len(events).
func (d *EventDAG) SplitInputs(k int) ([][]Event, error) {
	n := len(d.events)
	if k < 1 || k > n {
		return nil, &PreconditionError{Message: "split_inputs: k out of range"}
	}

	base := n / k
	extra := n % k

	result := make([][]Event, 0, k)
	idx := 0
	for i := 0; i < k; i++ {
		size := base
		if i < extra {
			size++
		}
		result = append(result, d.events[idx:idx+size])
		idx += size
	}
	return result, nil
}

// peek computes, for each consecutive pair of InputEvents (a, b), the
// deadline wait_time(a) = time(b) + peekSeconds. The last input event's
// deadline is time(last_event) + peekSeconds. InternalEvents do not get
// their own entry: the driver looks up the deadline of the nearest
// preceding InputEvent when timing out an InternalEvent's retries.
func (d *EventDAG) peek() {
	waitTimes := make(map[string]LogicalTime)

	var inputLabels []string
	for _, e := range d.events {
		if IsInputClass(e.Class()) {
			inputLabels = append(inputLabels, e.Label())
		}
	}

	for i, label := range inputLabels {
		if i+1 < len(inputLabels) {
			next, _ := d.byLabel[inputLabels[i+1]]
			waitTimes[label] = next.Time().Add(d.peekSeconds)
		} else {
			// No following input: the deadline covers every remaining
			// event through the end of the trace, so it is anchored on
			// the last event overall, not the last input event.
			last := d.events[len(d.events)-1]
			waitTimes[label] = last.Time().Add(d.peekSeconds)
		}
	}

	d.waitTimes = waitTimes
}
