// Package state provides thread-safe state management for foilwatch.
//
// # Overview
//
// The Store holds the latest view of the active poll session: the submitted
// request, every fitness point received so far, the final result, where the
// rotated airfoil image was written, and the outcome message. It sits
// between the poll loop, which writes to it through the watch sink
// interfaces, and the UI, which reads snapshots on its own refresh tick.
//
//	Producer (watch.Session):       Consumer (UI):
//	┌────────────────────┐         ┌────────────────────┐
//	│ store.Progress()   │         │                    │
//	│ store.Complete()   │────────>│ store.Snapshot()   │
//	│ store.Finish()     │ (mutex) │   render chart     │
//	└────────────────────┘         └────────────────────┘
//
// # Concurrency Model
//
// A sync.RWMutex guards the snapshot. Writers take the write lock for the
// duration of a slice append or field update; Snapshot takes the read lock
// and returns deep copies of the point slice, the result and the error, so
// the UI can keep a snapshot across frames without racing the poller.
//
// # Session Lifecycle
//
//	store.Begin(id, req)        → phase polling, points cleared
//	store.Progress(ctx, point)  → point appended
//	store.Complete(ctx, result) → result recorded
//	store.SetArtifact(path, err)
//	store.Finish(id, outcome)   → terminal phase and message
//
// Finish ignores outcomes whose id does not match the current session, so a
// superseded session that reports late cannot overwrite its successor.
// Progress and Complete fail once the session is terminal; the poll loop
// turns that into a sink error.
//
// # Testing Considerations
//
// The zero value is ready to use:
//
//	var store state.Store
package state
