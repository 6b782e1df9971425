package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/five82/foilwatch/internal/optimizer"
	"github.com/five82/foilwatch/internal/watch"
)

// Snapshot represents the latest session data available to the UI.
type Snapshot struct {
	SessionID    string
	Request      optimizer.JobRequest
	HasSession   bool
	Phase        watch.Phase
	Points       []optimizer.DataPoint
	Result       *optimizer.Result
	ArtifactPath string
	ArtifactErr  error
	Message      string
	LastError    error
	StartedAt    time.Time
	LastUpdated  time.Time
}

// IsRunning reports whether a session is still polling.
func (s Snapshot) IsRunning() bool {
	return s.HasSession && s.Phase == watch.PhasePolling
}

// Latest returns the newest point, if any.
func (s Snapshot) Latest() (optimizer.DataPoint, bool) {
	if len(s.Points) == 0 {
		return optimizer.DataPoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Store coordinates concurrent updates to the snapshot. It doubles as the
// progress and completion sink for the active session.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

var (
	_ watch.ProgressSink   = (*Store)(nil)
	_ watch.CompletionSink = (*Store)(nil)
)

// Begin resets the snapshot for a new session.
func (s *Store) Begin(id string, req optimizer.JobRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.snapshot = Snapshot{
		SessionID:   id,
		Request:     req,
		HasSession:  true,
		Phase:       watch.PhasePolling,
		Message:     "waiting for first generation",
		StartedAt:   now,
		LastUpdated: now,
	}
}

// Progress appends a point to the active session.
func (s *Store) Progress(_ context.Context, point optimizer.DataPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.snapshot.HasSession || s.snapshot.Phase.Terminal() {
		return fmt.Errorf("no active session")
	}
	s.snapshot.Points = append(s.snapshot.Points, point)
	s.snapshot.Message = fmt.Sprintf("generation %g", point.Index)
	s.snapshot.LastUpdated = time.Now()
	return nil
}

// Complete records the final result. The phase changes in Finish.
func (s *Store) Complete(_ context.Context, result optimizer.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.snapshot.HasSession || s.snapshot.Phase.Terminal() {
		return fmt.Errorf("no active session")
	}
	res := result.Clone()
	s.snapshot.Result = &res
	s.snapshot.Message = "fetching airfoil"
	s.snapshot.LastUpdated = time.Now()
	return nil
}

// SetArtifact records where the rotated airfoil was written, or why it was
// not.
func (s *Store) SetArtifact(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.ArtifactPath = path
	s.snapshot.ArtifactErr = err
	s.snapshot.LastUpdated = time.Now()
}

// Finish records a session outcome. Outcomes for sessions other than the
// current one are ignored.
func (s *Store) Finish(id string, out watch.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot.SessionID != id {
		return
	}
	s.snapshot.Phase = out.Phase
	s.snapshot.Message = out.Message()
	s.snapshot.LastError = out.Err
	if out.Result != nil && s.snapshot.Result == nil {
		res := out.Result.Clone()
		s.snapshot.Result = &res
	}
	s.snapshot.LastUpdated = time.Now()
}

// Fail records an error that prevented a session from starting.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastError = err
	s.snapshot.Message = err.Error()
	s.snapshot.LastUpdated = time.Now()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Points = clonePoints(s.snapshot.Points)
	if s.snapshot.Result != nil {
		res := s.snapshot.Result.Clone()
		snap.Result = &res
	}
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func clonePoints(points []optimizer.DataPoint) []optimizer.DataPoint {
	if len(points) == 0 {
		return nil
	}
	dup := make([]optimizer.DataPoint, len(points))
	copy(dup, points)
	return dup
}
