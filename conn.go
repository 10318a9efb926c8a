package replay

import "sync/atomic"

// InterceptedConnection sits between one external controller's socket and
// one simulated switch. Instead of delivering an incoming OpenFlow message
// straight to the switch, it hands the message off to a [GodScheduler];
// the switch only sees the message once the scheduler calls back
// AllowMessage.
//
// Blocked is read from the I/O worker goroutine and written from the
// driver goroutine (via ControlChannelBlock/Unblock), so it is guarded by
// an atomic rather than a plain bool.
type InterceptedConnection struct {
	DPID         int
	ControllerID ControllerID

	blocked atomic.Bool
	handler func(payload []byte) error
}

// NewInterceptedConnection creates a connection for one (dpid, controller)
// pair. handler is the switch's real message handler, invoked only when
// the GodScheduler releases a message via AllowMessage.
func NewInterceptedConnection(dpid int, controllerID ControllerID, handler func(payload []byte) error) *InterceptedConnection {
	return &InterceptedConnection{DPID: dpid, ControllerID: controllerID, handler: handler}
}

// Blocked reports whether the channel is currently blocked.
func (c *InterceptedConnection) Blocked() bool {
	return c.blocked.Load()
}

// SetBlocked sets the blocked state. While blocked, the connection's I/O
// worker must neither read from nor write to the underlying socket;
// kernel socket buffering absorbs the backlog for replay-scale workloads.
func (c *InterceptedConnection) SetBlocked(blocked bool) {
	c.blocked.Store(blocked)
}

// Intercept is called by the I/O worker when a message arrives from the
// controller. It forwards the message to the scheduler and blocks the
// calling goroutine until the scheduler schedules or drops it.
func (c *InterceptedConnection) Intercept(scheduler *GodScheduler, fp OFFingerprint, payload []byte) error {
	msg := scheduler.InsertPending(dpidKey(c.DPID), controllerKey(c.ControllerID), fp, payload)
	if err := msg.Wait(); err != nil {
		return err
	}
	return c.AllowMessage(payload)
}

// AllowMessage delivers payload to the switch's real handler. The
// GodScheduler calls this indirectly (via the PendingMessage returned from
// Schedule) once the trace's matching ControlMessageReceive event fires.
func (c *InterceptedConnection) AllowMessage(payload []byte) error {
	if c.handler == nil {
		return nil
	}
	return c.handler(payload)
}
