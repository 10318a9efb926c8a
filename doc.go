// Package replay implements a deterministic replay and fault-injection
// harness for SDN control planes.
//
// # Architecture
//
// The harness drives one or more external SDN controllers against a
// simulated network while interposing on every control-plane message, so
// that an entire run reduces to a totally ordered sequence of [Event]
// values. Two modes sit on top of the same core: fuzzing records a trace of
// injected-input and observed-internal event occurrences (see
// [IsInputClass]), and replay re-executes a previously recorded trace,
// verifying that each logged event still occurs in order.
//
// The core pieces, leaf to root:
//
//   - Fingerprints ([DPFingerprint], [OFFingerprint], and the per-kind
//     failure/recovery fingerprints) give packets, control messages, and
//     simulated network elements stable, hashable identities.
//   - The event model ([Event], [EventClass], [ProceedResult], and their
//     concrete subtypes in input_events.go / internal_events.go) is a closed
//     variant set with a lossless newline-delimited JSON codec.
//   - [EventDAG] holds an ordered trace plus the dependency-pruning logic
//     used by delta-debugging (see [EventDAG.Remove], [EventDAG.IgnorePortion]).
//   - [GodScheduler] is the process-wide registry of pending control
//     messages intercepted from external controllers.
//   - [InterceptedConnection] sits between a controller's socket and a
//     simulated switch, redirecting control messages into the scheduler.
//   - [Driver] iterates an [EventDAG], invoking each event's Proceed method
//     against a [Simulation] until it reports done or times out.
//
// Everything outside this list (controller process lifecycle, topology and
// host/link semantics, the dataplane patch panel, invariant checkers,
// configuration loading, and the command-line entry point) is a collaborator
// reached only through the narrow [Simulation] facade; this package never
// constructs one itself.
//
// # Thread Safety
//
// [Driver.Run] is a single cooperative loop: it is the sole mutator of the
// [EventDAG] it walks, and the sole consumer of the [GodScheduler]'s
// scheduling decisions. Background I/O workers owned by the caller interact
// with the core only by calling [GodScheduler.InsertPending] and
// [InterceptedConnection.AllowMessage]; the scheduler's internal state is
// mutex-protected and each of its operations is atomic.
package replay
