package replay

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// Driver is the replay engine's single cooperative loop: it walks an
// EventDAG in order, calling each event's Proceed against a Simulation
// until it returns Done, times out, or the driver is aborted.
//
// A Driver is not safe for concurrent calls to Run; it is the sole mutator
// of the DAG it is given and the sole consumer of scheduling decisions,
// per the spec's single-cooperative-loop concurrency model. Background I/O
// workers interact with the simulation only through the GodScheduler and
// InterceptedConnection, never through the Driver directly.
type Driver struct {
	opts  *driverOptions
	state *driverStateMachine
}

// NewDriver constructs a Driver. WithAbortController, WithLogger,
// WithProcessRegistry, and WithTick configure it; see options.go.
func NewDriver(opts ...DriverOption) (*Driver, error) {
	cfg, err := resolveDriverOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Driver{opts: cfg, state: newDriverStateMachine()}, nil
}

// Signal returns the AbortSignal a SIGINT/SIGTERM handler (or any other
// collaborator) should watch, and whose controller's Abort method it
// should call to request cooperative cancellation.
func (d *Driver) Signal() *AbortSignal {
	return d.opts.abort.Signal()
}

// Run walks dag in order against sim. It returns nil on normal completion,
// ErrAborted if cancelled via the driver's AbortController, or the first
// fatal error encountered (a StructuralError, PreconditionError, fatal
// EventTimeoutError, or *InvariantViolationError from a CheckInvariants
// event with fail_on_error set).
//
// Cleanup: sim.Cleanup is invoked exactly once, whether Run returns because
// the DAG was exhausted or because it was aborted.
func (d *Driver) Run(ctx context.Context, dag *EventDAG, sim Simulation) (err error) {
	if !d.state.TryTransition(StateIdle, StateRunning) {
		return &PreconditionError{Message: "driver: Run called more than once"}
	}

	cleanupOnce := func() {
		if cleanupErr := sim.Cleanup(); cleanupErr != nil {
			d.opts.logger.Err().Err(cleanupErr).Log("simulation cleanup failed")
		}
		if d.opts.processes != nil {
			if shutdownErr := d.opts.processes.Shutdown(); shutdownErr != nil {
				d.opts.logger.Err().Err(shutdownErr).Log("process registry shutdown failed")
			}
		}
		d.state.Store(StateDone)
	}
	defer func() {
		if r := recover(); r != nil {
			cleanupOnce()
			panic(r)
		}
	}()

	loopCtx, stopSupervisor := context.WithCancel(ctx)
	defer stopSupervisor()
	g, gctx := errgroup.WithContext(loopCtx)
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-d.signalAborted(gctx):
			return ErrAborted
		}
	})

	runErr := d.runLoop(gctx, dag, sim)

	// errgroup cancels gctx only once Wait returns, so the supervising
	// goroutine has to be released explicitly before waiting on it.
	stopSupervisor()
	_ = g.Wait()
	cleanupOnce()

	if runErr != nil {
		return runErr
	}
	return nil
}

// signalAborted returns a channel closed when the driver's AbortSignal
// fires, so Run's supervising goroutine can race it against context
// cancellation.
func (d *Driver) signalAborted(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{})
	d.opts.abort.Signal().OnAbort(func(any) {
		select {
		case <-ch:
		default:
			close(ch)
		}
	})
	return ch
}

func (d *Driver) runLoop(ctx context.Context, dag *EventDAG, sim Simulation) error {
	for _, e := range dag.Events() {
		if err := d.opts.abort.Signal().ThrowIfAborted(); err != nil {
			d.state.TryTransition(StateRunning, StateAborting)
			return ErrAborted
		}

		d.opts.logger.Info().Str("label", e.Label()).Str("class", string(e.Class())).Log("executing event")

		if err := d.proceedUntilDoneOrTimeout(ctx, dag, e, sim); err != nil {
			if errors.Is(err, errEventTimedOutInternal) {
				d.opts.logger.Warning().Str("label", e.Label()).Log("internal event timed out, skipping")
				continue
			}
			return err
		}
	}
	return nil
}

var errEventTimedOutInternal = errors.New("replay: internal event timed out")

// proceedUntilDoneOrTimeout retries e.Proceed on the driver's tick interval
// until Done, a fatal error, or the peek-derived deadline elapses. A
// deadline on an InternalEvent yields errEventTimedOutInternal (non-fatal,
// the caller skips); a deadline on an InputEvent is fatal.
func (d *Driver) proceedUntilDoneOrTimeout(ctx context.Context, dag *EventDAG, e Event, sim Simulation) error {
	deadline, hasDeadline := d.deadlineFor(dag, e)

	ticker := time.NewTicker(d.opts.tick)
	defer ticker.Stop()

	aborted := d.signalAborted(ctx)

	for {
		result, err := e.Proceed(sim)
		if err != nil {
			return err
		}
		if result == Done {
			return nil
		}

		if hasDeadline && time.Now().After(deadline) {
			if IsInputClass(e.Class()) {
				return &EventTimeoutError{Label: e.Label(), Input: true}
			}
			return errEventTimedOutInternal
		}

		select {
		case <-ctx.Done():
			d.state.TryTransition(StateRunning, StateAborting)
			return ErrAborted
		case <-aborted:
			d.state.TryTransition(StateRunning, StateAborting)
			return ErrAborted
		case <-ticker.C:
		}
	}
}

// deadlineFor converts the DAG's logical-time peek deadline for the
// nearest InputEvent at or before e's position into a wall-clock deadline
// anchored on "now", since the driver otherwise has no wall-clock
// reference for logical time. That preceding input's wait time is the
// deadline for its whole span, up to (but not including) the next input
// event, which is exactly where e falls.
func (d *Driver) deadlineFor(dag *EventDAG, e Event) (time.Time, bool) {
	pos, ok := dag.Position(e.Label())
	if !ok {
		return time.Time{}, false
	}
	events := dag.Events()
	for i := pos; i >= 0; i-- {
		other := events[i]
		if IsInputClass(other.Class()) {
			if wt, ok := dag.WaitTime(other.Label()); ok {
				slack := wt.Seconds - other.Time().Seconds
				if slack < 0 {
					slack = 0
				}
				return time.Now().Add(time.Duration(slack) * time.Second), true
			}
		}
	}
	return time.Time{}, false
}

// State returns the driver's current lifecycle state.
func (d *Driver) State() DriverState {
	return d.state.Load()
}
