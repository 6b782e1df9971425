package watch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/five82/foilwatch/internal/optimizer"
)

// DefaultInterval is the wait between the end of one poll and the next.
const DefaultInterval = 3 * time.Second

// ErrOutOfOrder is returned under OrderFail when the newest point has a lower
// index than one already delivered.
var ErrOutOfOrder = errors.New("progress point out of order")

// Phase is the state of a poll session.
type Phase int

const (
	PhasePolling Phase = iota
	PhaseCompleted
	PhaseFailed
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhasePolling:
		return "polling"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	case PhaseCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether no further transitions can happen.
func (p Phase) Terminal() bool {
	return p != PhasePolling
}

// OrderPolicy decides what happens to a point whose index went backwards.
type OrderPolicy int

const (
	// OrderSkip logs the point and keeps polling.
	OrderSkip OrderPolicy = iota
	// OrderFail ends the session with ErrOutOfOrder.
	OrderFail
)

func (o OrderPolicy) String() string {
	if o == OrderFail {
		return "fail"
	}
	return "skip"
}

// ParseOrderPolicy maps "skip" and "fail" (case-insensitive); empty is skip.
func ParseOrderPolicy(s string) (OrderPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return OrderSkip, nil
	case "fail":
		return OrderFail, nil
	default:
		return OrderSkip, fmt.Errorf("unknown out-of-order policy %q", s)
	}
}

// StatusSource fetches one raw status body per call.
type StatusSource interface {
	Status(ctx context.Context) (string, error)
}

// Config tunes a session. The zero value polls every DefaultInterval on the
// system clock, skips out-of-order points and delivers only the newest point
// of each response.
type Config struct {
	Interval time.Duration
	Order    OrderPolicy
	// Backfill delivers every unseen point of a response instead of only the
	// newest, so generations finished between two polls are not lost.
	Backfill bool
	Clock    Clock
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Clock == nil {
		c.Clock = SystemClock{}
	}
	return c
}

// Outcome describes how a session ended.
type Outcome struct {
	Phase  Phase
	Result *optimizer.Result
	Points int // progress points delivered
	Polls  int // status requests issued
	Err    error
}

// Message is a one-line summary suitable for showing to the user.
func (o Outcome) Message() string {
	switch o.Phase {
	case PhaseCompleted:
		if o.Result != nil {
			return fmt.Sprintf("optimisation complete: angle of attack %.2f° after %d generations", o.Result.AngleOfAttack, o.Points)
		}
		return "optimisation complete"
	case PhaseFailed:
		if o.Err != nil {
			return "polling stopped: " + o.Err.Error()
		}
		return "polling stopped"
	case PhaseCancelled:
		return "session cancelled"
	default:
		return fmt.Sprintf("polling (%d points)", o.Points)
	}
}

// Session polls a status source until the job completes, fails or the
// context is cancelled.
type Session struct {
	source StatusSource
	sinks  Sinks
	cfg    Config
}

// NewSession prepares a poll session. It does not issue any request.
func NewSession(source StatusSource, sinks Sinks, cfg Config) *Session {
	return &Session{source: source, sinks: sinks, cfg: cfg.withDefaults()}
}

// Run drives the loop and returns once a terminal phase is reached. The
// last-seen index lives only for the duration of the call.
func (s *Session) Run(ctx context.Context) Outcome {
	logger := zerolog.Ctx(ctx)
	progress := s.sinks.progress()
	completion := s.sinks.completion()

	out := Outcome{Phase: PhasePolling}
	var (
		lastIndex float64
		seen      bool
	)

	for {
		if ctx.Err() != nil {
			return s.cancelled(logger, out)
		}

		out.Polls++
		body, err := s.source.Status(ctx)
		if ctx.Err() != nil {
			return s.cancelled(logger, out)
		}
		if err != nil {
			return s.failed(logger, out, fmt.Errorf("poll status: %w", err))
		}

		resp, err := optimizer.Classify(body)
		if err != nil {
			return s.failed(logger, out, err)
		}

		switch resp.Kind {
		case optimizer.KindComplete:
			result := resp.Result.Clone()
			if err := completion.Complete(ctx, result.Clone()); err != nil {
				return s.failed(logger, out, &SinkError{Sink: "completion", Err: err})
			}
			out.Phase = PhaseCompleted
			out.Result = &result
			logger.Info().
				Float64("aoa", result.AngleOfAttack).
				Int("points", out.Points).
				Int("polls", out.Polls).
				Msg("session-completed")
			return out

		case optimizer.KindProgress:
			fresh, err := s.freshPoints(logger, resp.Series, lastIndex, seen)
			if err != nil {
				return s.failed(logger, out, err)
			}
			for _, point := range fresh {
				if err := progress.Progress(ctx, point); err != nil {
					return s.failed(logger, out, &SinkError{Sink: "progress", Err: err})
				}
				lastIndex, seen = point.Index, true
				out.Points++
				logger.Debug().Float64("index", point.Index).Float64("fitness", point.Value).Msg("poll-progress")
			}

		case optimizer.KindPending:
			logger.Debug().Int("polls", out.Polls).Msg("poll-pending")
		}

		select {
		case <-ctx.Done():
			return s.cancelled(logger, out)
		case <-s.cfg.Clock.After(s.cfg.Interval):
		}
	}
}

// freshPoints picks the points of series that have not been delivered yet.
// Only the newest element is considered unless backfill is enabled.
func (s *Session) freshPoints(logger *zerolog.Logger, series []optimizer.DataPoint, lastIndex float64, seen bool) ([]optimizer.DataPoint, error) {
	newest, ok := lo.Last(series)
	if !ok {
		return nil, nil
	}

	switch {
	case !seen || newest.Index > lastIndex:
		if !s.cfg.Backfill {
			return []optimizer.DataPoint{newest}, nil
		}
		cursor, have := lastIndex, seen
		return lo.Filter(series, func(p optimizer.DataPoint, _ int) bool {
			if have && p.Index <= cursor {
				return false
			}
			cursor, have = p.Index, true
			return true
		}), nil

	case newest.Index == lastIndex:
		logger.Debug().Float64("index", newest.Index).Msg("poll-duplicate")
		return nil, nil

	default:
		if s.cfg.Order == OrderFail {
			return nil, fmt.Errorf("%w: index %g after %g", ErrOutOfOrder, newest.Index, lastIndex)
		}
		logger.Warn().
			Float64("index", newest.Index).
			Float64("last_index", lastIndex).
			Msg("poll-out-of-order")
		return nil, nil
	}
}

func (s *Session) failed(logger *zerolog.Logger, out Outcome, err error) Outcome {
	out.Phase = PhaseFailed
	out.Err = err
	logger.Error().Err(err).Int("points", out.Points).Int("polls", out.Polls).Msg("session-failed")
	return out
}

func (s *Session) cancelled(logger *zerolog.Logger, out Outcome) Outcome {
	out.Phase = PhaseCancelled
	logger.Info().Int("points", out.Points).Int("polls", out.Polls).Msg("session-cancelled")
	return out
}
