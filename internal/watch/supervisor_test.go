package watch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/foilwatch/internal/optimizer"
)

// fakeBackend serves a fixed list of status bodies and records submissions.
type fakeBackend struct {
	mu        sync.Mutex
	submitErr error
	submitted []optimizer.JobRequest
	bodies    []string
	polls     int
}

func (b *fakeBackend) Submit(_ context.Context, req optimizer.JobRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitErr != nil {
		return b.submitErr
	}
	b.submitted = append(b.submitted, req)
	return nil
}

func (b *fakeBackend) Status(context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.polls
	b.polls++
	if idx >= len(b.bodies) {
		return b.bodies[len(b.bodies)-1], nil
	}
	return b.bodies[idx], nil
}

func (b *fakeBackend) pollCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.polls
}

func TestSupervisor_SubmitRunsSessionToCompletion(t *testing.T) {
	backend := &fakeBackend{bodies: []string{
		`{"fitness_tracker":[[1,0.2]]}`,
		`{"status":"Complete.","Airfoil":{"AOA":7.5}}`,
	}}

	var (
		mu       sync.Mutex
		started  []string
		finished []Outcome
	)
	hooks := Hooks{
		OnStart: func(h *Handle) {
			mu.Lock()
			defer mu.Unlock()
			started = append(started, h.ID)
		},
		OnFinish: func(h *Handle, out Outcome) {
			mu.Lock()
			defer mu.Unlock()
			finished = append(finished, out)
		},
	}
	sup := NewSupervisor(backend, Config{Clock: &instantClock{}}, hooks)

	rec := &recorder{}
	req := optimizer.JobRequest{SolutionType: optimizer.Cruise, Velocity: 30}
	h, err := sup.Submit(context.Background(), req, rec.sinks())
	require.NoError(t, err)
	require.NotEmpty(t, h.ID)
	assert.Equal(t, req, h.Request)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := h.Wait(ctx)
	require.NoError(t, err)

	assert.Equal(t, PhaseCompleted, out.Phase)
	assert.Equal(t, 7.5, out.Result.AngleOfAttack)
	assert.Equal(t, []optimizer.JobRequest{req}, backend.submitted)
	assert.Equal(t, []optimizer.DataPoint{{Index: 1, Value: 0.2}}, rec.points)

	mu.Lock()
	assert.Equal(t, []string{h.ID}, started)
	require.Len(t, finished, 1)
	assert.Equal(t, PhaseCompleted, finished[0].Phase)
	mu.Unlock()

	got, ok := h.Outcome()
	assert.True(t, ok)
	assert.Equal(t, out, got)
	assert.Same(t, h, sup.Active())
}

func TestSupervisor_SubmitFailureDoesNotPoll(t *testing.T) {
	backend := &fakeBackend{submitErr: errors.New("connection refused"), bodies: []string{`{}`}}
	var startCalls int
	sup := NewSupervisor(backend, Config{Clock: &instantClock{}}, Hooks{
		OnStart: func(*Handle) { startCalls++ },
	})

	h, err := sup.Submit(context.Background(), optimizer.JobRequest{SolutionType: optimizer.MaxClimb, Velocity: 20}, Sinks{})
	require.Error(t, err)
	assert.Nil(t, h)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Zero(t, backend.pollCount())
	assert.Zero(t, startCalls)
	assert.Nil(t, sup.Active())
}

func TestSupervisor_InvalidRequestRejectedBeforeSubmit(t *testing.T) {
	backend := &fakeBackend{bodies: []string{`{}`}}
	sup := NewSupervisor(backend, Config{}, Hooks{})

	_, err := sup.Submit(context.Background(), optimizer.JobRequest{SolutionType: 8, Velocity: 20}, Sinks{})
	require.Error(t, err)
	assert.Empty(t, backend.submitted)
}

func TestSupervisor_NewSubmitCancelsPreviousSession(t *testing.T) {
	backend := &fakeBackend{bodies: []string{`{"fitness_tracker":[[1,0.2]]}`}}
	clock := newBlockingClock()
	sup := NewSupervisor(backend, Config{Clock: clock}, Hooks{})

	first := &recorder{}
	h1, err := sup.Submit(context.Background(), optimizer.JobRequest{SolutionType: optimizer.Cruise, Velocity: 10}, first.sinks())
	require.NoError(t, err)

	select {
	case <-clock.waiting:
	case <-time.After(2 * time.Second):
		t.Fatal("first session never started waiting")
	}

	second := &recorder{}
	h2, err := sup.Submit(context.Background(), optimizer.JobRequest{SolutionType: optimizer.OptimalClimb, Velocity: 11}, second.sinks())
	require.NoError(t, err)
	assert.NotEqual(t, h1.ID, h2.ID)

	// Submit returns only after the previous session exited.
	out1, ended := h1.Outcome()
	require.True(t, ended)
	assert.Equal(t, PhaseCancelled, out1.Phase)
	assert.Same(t, h2, sup.Active())

	sup.Cancel()
	out2, ended := h2.Outcome()
	require.True(t, ended)
	assert.Equal(t, PhaseCancelled, out2.Phase)
	assert.Len(t, backend.submitted, 2)
}

func TestSupervisor_CancelWithoutSessionIsNoop(t *testing.T) {
	sup := NewSupervisor(&fakeBackend{bodies: []string{`{}`}}, Config{}, Hooks{})
	sup.Cancel()
	assert.Nil(t, sup.Active())
}

func TestHandle_WaitHonoursContext(t *testing.T) {
	backend := &fakeBackend{bodies: []string{`{}`}}
	sup := NewSupervisor(backend, Config{Clock: newBlockingClock()}, Hooks{})

	h, err := sup.Submit(context.Background(), optimizer.JobRequest{SolutionType: optimizer.Cruise, Velocity: 10}, Sinks{})
	require.NoError(t, err)
	defer sup.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = h.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
