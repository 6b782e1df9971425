// Package watch implements the poll-until-complete protocol for optimisation
// jobs.
//
// # Overview
//
// After a job is posted, the server exposes its progress through a status
// endpoint that has to be polled. This package owns that loop: it classifies
// every response, forwards new fitness points and the final result to sinks,
// and decides when to stop.
//
// # Components
//
//   - session.go: Session, the loop itself, and its Outcome
//   - supervisor.go: Supervisor and Handle, the submission flow and the
//     single-active-session guard
//   - sink.go: ProgressSink and CompletionSink, the only way results leave
//     the loop
//   - clock.go: Clock, so tests can drive the loop without real delays
//
// # State Machine
//
//	       ┌──────────────┐
//	┌─────>│   Polling    │──── Complete ────> Completed
//	│      └──────┬───────┘
//	│ wait        │ progress / pending
//	└─────────────┘
//	              │ transport, decode or sink error ──> Failed
//	              │ context cancelled ──────────────> Cancelled
//
// Each iteration issues one status request. Transport and decode errors are
// terminal: the loop never retries within a session. The wait between
// iterations (Config.Interval, 3s by default) starts after the previous
// response was handled, not when its request was sent.
//
// # Progress Points
//
// The server resends its whole fitness history on every poll. The loop
// remembers the last delivered index and only forwards the newest point when
// its index is higher. An equal index is a duplicate and is dropped quietly;
// a lower index is handled by Config.Order (log and skip, or fail the
// session). With Config.Backfill every unseen point of a response is
// delivered in order.
//
// # Cancellation
//
// Supervisor.Submit cancels any running session and waits for it to exit
// before posting the new job. Handle.Cancel and cancellation of the parent
// context end a session with PhaseCancelled; sinks are not called after
// cancellation is observed.
//
// # Logging
//
// The loop logs through zerolog.Ctx(ctx). Supervisor adds a "session" field
// carrying the session ID.
package watch
