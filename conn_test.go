package replay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterceptedConnectionBlockedState(t *testing.T) {
	conn := NewInterceptedConnection(1, ControllerID{Host: "127.0.0.1", Port: 8888}, nil)
	assert.False(t, conn.Blocked())

	conn.SetBlocked(true)
	assert.True(t, conn.Blocked())
}

func TestInterceptedConnectionAllowMessageInvokesHandler(t *testing.T) {
	var got []byte
	conn := NewInterceptedConnection(1, ControllerID{Host: "127.0.0.1", Port: 8888}, func(payload []byte) error {
		got = payload
		return nil
	})

	require.NoError(t, conn.AllowMessage([]byte("hello")))
	assert.Equal(t, []byte("hello"), got)
}

func TestInterceptedConnectionAllowMessageNoHandlerIsNoOp(t *testing.T) {
	conn := NewInterceptedConnection(1, ControllerID{Host: "127.0.0.1", Port: 8888}, nil)
	require.NoError(t, conn.AllowMessage([]byte("hello")))
}

// Scenario 5: two ControlMessageReceive events with identical (dpid, cid,
// fp) and two intercepted messages arriving in order m1, m2: the first
// event releases m1, the second releases m2. Within one key, release order
// is arrival order.
func TestInterceptScheduleReleasesInArrivalOrder(t *testing.T) {
	scheduler := NewGodScheduler()
	id := ControllerID{Host: "127.0.0.1", Port: 8888}
	var delivered []string

	conn := NewInterceptedConnection(1, id, func(payload []byte) error {
		delivered = append(delivered, string(payload))
		return nil
	})

	fp := NewOFFingerprintGeneric("hello", nil)

	done := make(chan struct{}, 2)
	go func() {
		require.NoError(t, conn.Intercept(scheduler, fp, []byte("m1")))
		done <- struct{}{}
	}()
	// m1 must be queued before m2 arrives.
	waitForPending(t, scheduler, dpidKey(1), controllerKey(id), fp, 1)
	go func() {
		require.NoError(t, conn.Intercept(scheduler, fp, []byte("m2")))
		done <- struct{}{}
	}()
	waitForPending(t, scheduler, dpidKey(1), controllerKey(id), fp, 2)

	// Wait for each release to be delivered before scheduling the next, so
	// the delivered slice records release order.
	_, err := scheduler.Schedule(dpidKey(1), controllerKey(id), fp)
	require.NoError(t, err)
	<-done
	_, err = scheduler.Schedule(dpidKey(1), controllerKey(id), fp)
	require.NoError(t, err)
	<-done

	assert.Equal(t, []string{"m1", "m2"}, delivered)
}

func waitForPending(t *testing.T, s *GodScheduler, dpid, cid string, fp OFFingerprint, n int) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		s.mu.Lock()
		count := len(s.pending[pendingKey{DPID: dpid, ControllerID: cid, Fingerprint: fp}])
		s.mu.Unlock()
		if count >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d pending messages", n)
}
