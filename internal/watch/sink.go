package watch

import (
	"context"
	"fmt"

	"github.com/five82/foilwatch/internal/optimizer"
)

// ProgressSink receives new fitness points, one at a time, in increasing
// index order.
type ProgressSink interface {
	Progress(ctx context.Context, point optimizer.DataPoint) error
}

// CompletionSink receives the final result exactly once per completed session.
type CompletionSink interface {
	Complete(ctx context.Context, result optimizer.Result) error
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(ctx context.Context, point optimizer.DataPoint) error

// Progress implements ProgressSink.
func (f ProgressFunc) Progress(ctx context.Context, point optimizer.DataPoint) error {
	return f(ctx, point)
}

// CompletionFunc adapts a function to CompletionSink.
type CompletionFunc func(ctx context.Context, result optimizer.Result) error

// Complete implements CompletionSink.
func (f CompletionFunc) Complete(ctx context.Context, result optimizer.Result) error {
	return f(ctx, result)
}

// Sinks pairs the two collaborators a session reports to. Nil members
// discard what they would have received.
type Sinks struct {
	Progress   ProgressSink
	Completion CompletionSink
}

func (s Sinks) progress() ProgressSink {
	if s.Progress == nil {
		return ProgressFunc(func(context.Context, optimizer.DataPoint) error { return nil })
	}
	return s.Progress
}

func (s Sinks) completion() CompletionSink {
	if s.Completion == nil {
		return CompletionFunc(func(context.Context, optimizer.Result) error { return nil })
	}
	return s.Completion
}

// SinkError reports a sink that rejected a value.
type SinkError struct {
	Sink string // "progress" or "completion"
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s sink: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }
