package replay

import (
	"strconv"
	"sync/atomic"
)

// LabelAllocator generates the sequence of event labels used across a
// single replay session. Labels take the form "e" followed by a decimal
// integer, matching the original harness's auto-labeling scheme, and are
// produced by a simple atomic counter rather than a UUID generator: the
// determinism property (identical trace + seed produce identical observed
// event sequences) depends on labels being reproducible, and a random
// generator would break that on every run.
type LabelAllocator struct {
	next atomic.Uint64
}

// NewLabelAllocator creates an allocator whose first label is "e1".
func NewLabelAllocator() *LabelAllocator {
	a := &LabelAllocator{}
	a.next.Store(1)
	return a
}

// Next returns the next label in the sequence and advances the counter.
func (a *LabelAllocator) Next() string {
	n := a.next.Add(1) - 1
	return "e" + strconv.FormatUint(n, 10)
}

// Peek returns what Next would return without advancing the counter. It
// exists for diagnostics and tests; the driver never uses it to assign
// labels.
func (a *LabelAllocator) Peek() string {
	return "e" + strconv.FormatUint(a.next.Load(), 10)
}
