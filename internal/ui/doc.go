// Package ui provides the terminal user interface for foilwatch.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model owns all view state and never
// touches the network: it reads state.Store snapshots on a refresh tick and
// hands job submissions to a Controller, which runs them through the watch
// supervisor off the UI goroutine.
//
// # Package Structure
//
//   - app.go: Model, Update/View, tick and snapshot commands, Run
//   - form.go: the new-job modal (solution type and velocity)
//   - session.go: the session view with phase, sparkline, summary and result
//   - chart.go: sparkline rendering of the fitness series
//   - logs.go: the log view with follow mode and regex search
//   - header.go: status header and command bar
//   - help.go: the help overlay, built from the key map
//   - keys.go, theme.go, style_helpers.go: bindings, palettes and render helpers
//
// # Views
//
//   - Session: the active job, its fitness points as they arrive, and the
//     final angle of attack and airfoil image path once the run completes
//   - Logs: a tail of the zerolog file foilwatch writes
//
// # Event Flow
//
//  1. Run builds the Model and starts the program with the caller's context
//  2. tickMsg fetches a snapshot (and the log tail while following)
//  3. n opens the job form; enter validates it and submits via the Controller
//  4. x cancels the running session; r resubmits the last job
//  5. Cancelling the context shuts the program down
//
// The chosen theme and the last submitted job are written back to the
// preferences file so the form is pre-filled next time.
package ui
