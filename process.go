package replay

import "sync"

// ProcessRegistry tracks the set of externally launched processes (e.g.
// controller binaries) that must be torn down exactly once when the
// replay driver aborts or completes. It replaces the source's
// process-wide "active processes" global set with an explicit collaborator
// passed into the driver, so that signal-time cleanup has no hidden global
// state: a signal handler calls Shutdown, which the driver also calls
// internally exactly once.
type ProcessRegistry struct {
	mu       sync.Mutex
	shutdown []func() error
	done     bool
}

// NewProcessRegistry creates an empty registry.
func NewProcessRegistry() *ProcessRegistry {
	return &ProcessRegistry{}
}

// Register adds a cleanup function, invoked by Shutdown in the reverse of
// registration order (most-recently-started process is torn down first).
func (r *ProcessRegistry) Register(cleanup func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	r.shutdown = append(r.shutdown, cleanup)
}

// Shutdown runs every registered cleanup function exactly once. Subsequent
// calls are no-ops. Errors from individual cleanups are collected but do
// not stop the remaining cleanups from running.
func (r *ProcessRegistry) Shutdown() error {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return nil
	}
	r.done = true
	fns := r.shutdown
	r.shutdown = nil
	r.mu.Unlock()

	var firstErr error
	for i := len(fns) - 1; i >= 0; i-- {
		if err := fns[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
