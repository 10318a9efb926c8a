package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lt(sec int64) LogicalTime { return LogicalTime{Seconds: sec} }

func TestNewEventDAGRejectsDuplicateLabels(t *testing.T) {
	events := []Event{
		NewSwitchFailure("e1", lt(0), 1),
		NewSwitchFailure("e1", lt(1), 2),
	}
	_, err := NewEventDAG(events)
	require.Error(t, err)
	var structural *StructuralError
	require.ErrorAs(t, err, &structural)
}

func TestEventDAGPositionsAreDenseAndMonotone(t *testing.T) {
	events := []Event{
		NewSwitchFailure("e1", lt(0), 1),
		NewSwitchFailure("e2", lt(1), 2),
		NewSwitchFailure("e3", lt(2), 3),
	}
	dag, err := NewEventDAG(events)
	require.NoError(t, err)

	for i, e := range events {
		pos, ok := dag.Position(e.Label())
		require.True(t, ok)
		assert.Equal(t, i, pos)
	}
}

// Scenario 3: SwitchFailure(1) then SwitchRecovery(1): after marking
// invalid sequences, the failure's dependent_labels contains the
// recovery's label. remove({failure}) empties the DAG.
func TestSwitchFailureRecoveryPairingAndRemove(t *testing.T) {
	failure := NewSwitchFailure("e1", lt(0), 1)
	recovery := NewSwitchRecovery("e2", lt(1), 1)

	dag, err := NewEventDAG([]Event{failure, recovery})
	require.NoError(t, err)

	assert.Contains(t, failure.DependentLabels(), "e2")

	dag.Remove([]string{"e1"})
	assert.Equal(t, 0, dag.Len())
}

func TestRecoveryNotPrunedIndividually(t *testing.T) {
	failure := NewSwitchFailure("e1", lt(0), 1)
	recovery := NewSwitchRecovery("e2", lt(1), 1)
	dag, err := NewEventDAG([]Event{failure, recovery})
	require.NoError(t, err)

	dag.Remove([]string{"e2"})
	assert.Equal(t, 2, dag.Len(), "recovery kinds are never individually pruned")
}

func TestPruningClosureRemovesTransitiveDependents(t *testing.T) {
	failure := NewSwitchFailure("e1", lt(0), 1)
	other := NewWaitTime("e2", lt(1), 1.0)
	failure.addDependentLabel("e2")

	dag, err := NewEventDAG([]Event{failure, other})
	require.NoError(t, err)

	dag.Remove([]string{"e1"})
	assert.Equal(t, 0, dag.Len())
	_, ok := dag.Lookup("e1")
	assert.False(t, ok)
	_, ok = dag.Lookup("e2")
	assert.False(t, ok)
}

func TestPruningPreservesRecoveryPairingAcrossMultipleFailures(t *testing.T) {
	f1 := NewSwitchFailure("e1", lt(0), 1)
	r1 := NewSwitchRecovery("e2", lt(1), 1)
	f2 := NewSwitchFailure("e3", lt(2), 2)
	r2 := NewSwitchRecovery("e4", lt(3), 2)

	dag, err := NewEventDAG([]Event{f1, r1, f2, r2})
	require.NoError(t, err)

	dag.Remove([]string{"e1"})

	// f2/r2 survive, still paired.
	remaining, ok := dag.Lookup("e3")
	require.True(t, ok)
	assert.Contains(t, remaining.(*SwitchFailure).DependentLabels(), "e4")
	_, ok = dag.Lookup("e4")
	assert.True(t, ok)
}

// The fourth recovery-pairing family (control-channel) pairs
// ControlChannelUnblock with ControlChannelBlock, same as switch/link/
// controller, even though both are InternalEvent kinds rather than
// InputEvent kinds.
func TestControlChannelPairing(t *testing.T) {
	id := ControllerID{Host: "127.0.0.1", Port: 8888}
	block := NewControlChannelBlock("e1", lt(0), 1, id)
	unblock := NewControlChannelUnblock("e2", lt(1), 1, id)

	_, err := NewEventDAG([]Event{block, unblock})
	require.NoError(t, err)

	assert.Contains(t, block.DependentLabels(), "e2")
}

func TestSplitInputsTotality(t *testing.T) {
	events := make([]Event, 7)
	for i := range events {
		events[i] = NewWaitTime(labelFor(i), lt(int64(i)), 1.0)
	}
	dag, err := NewEventDAG(events)
	require.NoError(t, err)

	for k := 1; k <= 7; k++ {
		parts, err := dag.SplitInputs(k)
		require.NoError(t, err)
		require.Len(t, parts, k)

		var total int
		for _, p := range parts {
			assert.NotEmpty(t, p)
			total += len(p)
		}
		assert.Equal(t, len(events), total)
	}
}

func TestSplitInputsOutOfRange(t *testing.T) {
	events := []Event{NewWaitTime("e1", lt(0), 1.0)}
	dag, err := NewEventDAG(events)
	require.NoError(t, err)

	_, err = dag.SplitInputs(0)
	require.Error(t, err)
	_, err = dag.SplitInputs(2)
	require.Error(t, err)
}

func TestPeekDeadlinesUseNextInputEventPlusSlack(t *testing.T) {
	a := NewWaitTime("e1", lt(0), 1.0)
	b := NewWaitTime("e2", lt(5), 1.0)
	dag, err := NewEventDAG([]Event{a, b})
	require.NoError(t, err)

	wtA, ok := dag.WaitTime("e1")
	require.True(t, ok)
	assert.Equal(t, lt(5).Add(DefaultPeekSeconds), wtA)

	wtB, ok := dag.WaitTime("e2")
	require.True(t, ok)
	assert.Equal(t, lt(5).Add(DefaultPeekSeconds), wtB)
}

func TestIgnorePortionDoesNotMutateOriginal(t *testing.T) {
	failure := NewSwitchFailure("e1", lt(0), 1)
	recovery := NewSwitchRecovery("e2", lt(1), 1)
	dag, err := NewEventDAG([]Event{failure, recovery})
	require.NoError(t, err)

	view, err := dag.IgnorePortion([]string{"e1"})
	require.NoError(t, err)

	assert.Equal(t, 0, view.Len())
	assert.Equal(t, 2, dag.Len())
}

func labelFor(i int) string {
	return NewLabelAllocator().Next() + string(rune('a'+i))
}
