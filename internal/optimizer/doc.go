// Package optimizer provides an HTTP client for the airfoil optimisation
// server and the decoder for its status responses.
//
// # Overview
//
// The server runs a genetic algorithm in the background. A client posts a
// job to /run, then reads /get_status until the job reports completion, and
// finally downloads the rendered airfoil from /outputs/airfoil.png.
//
// The package is split into three files:
//
//   - client.go: transport (one HTTP exchange per call) and typed helpers
//   - classify.go: strict decoding of /get_status bodies into PollResponse
//   - types.go: request, result and data point types
//
// # Client Usage
//
//	client, err := optimizer.NewClient("127.0.0.1:8081", 0)
//	if err != nil {
//		return err
//	}
//	if err := client.Submit(ctx, optimizer.JobRequest{SolutionType: optimizer.Cruise, Velocity: 30}); err != nil {
//		return err
//	}
//	body, err := client.Status(ctx)
//	if err != nil {
//		return err
//	}
//	resp, err := optimizer.Classify(body)
//
// # Status Bodies
//
// /get_status returns one of three shapes:
//
//	{"status": "Complete.", "Airfoil": {"AOA": 4.2, ...}}   → KindComplete
//	{"fitness_tracker": [[1, 0.41], [2, 0.47]]}             → KindProgress
//	{}                                                       → KindPending
//
// The fitness tracker is cumulative: every body repeats the generations
// already reported and the last pair is the newest. Before the first
// generation finishes the server sends a single empty pair, which decodes as
// pending.
//
// # Error Handling
//
// Send returns *TransportError for network failures, cancellation and any
// status outside [200,300); StatusCode is zero when no response arrived.
// Classify returns *ClassificationError with a Reason. Neither is retried
// here: retry policy belongs to the caller.
package optimizer
