// Package app is foilwatch's composition root.
//
// It loads configuration, applies command-line overrides, opens the log,
// builds the optimizer client and checks the server answers before anything
// is submitted. From there it hands off to one of three front ends:
//
//   - Run starts the TUI. The UI drives a Controller, which owns the
//     watch.Supervisor and routes every session into a shared state.Store.
//   - RunHeadless submits one job, streams progress points to a writer and
//     prints a summary with a fitness histogram when the session ends.
//   - Probe issues a single status request and prints its classification.
//
// # Data Flow
//
//	┌──────────────┐
//	│ bootstrap()  │ config.Load, overrides, logging.Open, optimizer.NewClient
//	└──────┬───────┘
//	       ├─────> ensureAvailable()   reachability probe, retried
//	       ├─────> newController()     supervisor + store + renderer
//	       └─────> ui.Run() or RunHeadless()
//
//	Session (one at a time):
//	┌─────────────────────────────────────────┐
//	│ Supervisor.Submit → POST /run           │
//	│  ├─> OnStart   store.Begin()            │
//	│  ├─> Session.Run polls /get_status      │
//	│  │    ├─> store.Progress()              │
//	│  │    └─> complete(): store.Complete(), │
//	│  │         artifact.Render()            │
//	│  └─> OnFinish  store.Finish()           │
//	└─────────────────────────────────────────┘
//
// # Error Handling
//
// Setup failures are returned: a bad config, an unopenable log, an
// unreachable server, a rejected submission. Once a session runs, how it
// ended is reported through watch.Outcome and the store. A failed artifact
// render is recorded but never fails the session.
package app
