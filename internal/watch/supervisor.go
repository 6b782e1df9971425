package watch

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/five82/foilwatch/internal/optimizer"
)

// Backend is the server surface a Supervisor needs. *optimizer.Client
// satisfies it.
type Backend interface {
	Submit(ctx context.Context, req optimizer.JobRequest) error
	StatusSource
}

// Hooks observe session lifecycle. They run while the supervisor holds its
// lock or is waiting on the session, so they must not call back into the
// Supervisor.
type Hooks struct {
	// OnStart runs after /run succeeded and before the first poll.
	OnStart func(h *Handle)
	// OnFinish runs once the session reached a terminal phase.
	OnFinish func(h *Handle, out Outcome)
}

// Supervisor owns at most one active poll session. Submitting again cancels
// the previous session and waits for it to exit before the new job is posted,
// so sink writes from two sessions never interleave.
type Supervisor struct {
	backend Backend
	cfg     Config
	hooks   Hooks

	mu     sync.Mutex
	active *Handle
}

// NewSupervisor builds a Supervisor for backend.
func NewSupervisor(backend Backend, cfg Config, hooks Hooks) *Supervisor {
	return &Supervisor{backend: backend, cfg: cfg, hooks: hooks}
}

// Handle controls one poll session.
type Handle struct {
	ID      string
	Request optimizer.JobRequest

	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
	outcome Outcome
	ended   bool
}

// Cancel stops the session at its next suspension point. Safe to call more
// than once and after the session ended.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed when the session reached a terminal phase.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Outcome returns the final outcome once the session ended.
func (h *Handle) Outcome() (Outcome, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outcome, h.ended
}

// Wait blocks until the session ends or ctx is done.
func (h *Handle) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-h.done:
		out, _ := h.Outcome()
		return out, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (h *Handle) finish(out Outcome) {
	h.mu.Lock()
	h.outcome = out
	h.ended = true
	h.mu.Unlock()
	close(h.done)
}

// Submit posts req and starts polling. The returned handle's session runs
// until completion, failure, Cancel, or cancellation of ctx. When the post
// fails no session is started and the error is returned.
func (s *Supervisor) Submit(ctx context.Context, req optimizer.JobRequest, sinks Sinks) (*Handle, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job request: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev := s.active; prev != nil {
		prev.Cancel()
		<-prev.done
		s.active = nil
	}

	id := uuid.NewString()
	logger := zerolog.Ctx(ctx).With().Str("session", id).Logger()

	if err := s.backend.Submit(ctx, req); err != nil {
		logger.Error().Err(err).Msg("submit-failed")
		return nil, fmt.Errorf("submit job: %w", err)
	}
	logger.Info().
		Stringer("solution", req.SolutionType).
		Int("velocity", req.Velocity).
		Msg("job-submitted")

	sessCtx, cancel := context.WithCancel(logger.WithContext(ctx))
	h := &Handle{
		ID:      id,
		Request: req,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.active = h

	if s.hooks.OnStart != nil {
		s.hooks.OnStart(h)
	}

	session := NewSession(s.backend, sinks, s.cfg)
	go func() {
		defer cancel()
		out := session.Run(sessCtx)
		if s.hooks.OnFinish != nil {
			s.hooks.OnFinish(h, out)
		}
		h.finish(out)
	}()

	return h, nil
}

// Active returns the most recently started session, which may already have
// ended. Nil before the first successful Submit.
func (s *Supervisor) Active() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Cancel stops the active session, if any, and waits for it to exit.
func (s *Supervisor) Cancel() {
	s.mu.Lock()
	h := s.active
	s.mu.Unlock()
	if h == nil {
		return
	}
	h.Cancel()
	<-h.done
}
