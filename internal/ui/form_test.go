package ui

import (
	"strings"
	"testing"

	"github.com/five82/foilwatch/internal/optimizer"
)

func TestNewJobForm_PrefillsInitialRequest(t *testing.T) {
	f := newJobForm(optimizer.JobRequest{SolutionType: optimizer.MaxClimb, Velocity: 42})
	if f.solutionType() != optimizer.MaxClimb {
		t.Fatalf("solutionType = %v, want max climb", f.solutionType())
	}
	if f.velocity.Value() != "42" {
		t.Fatalf("velocity = %q, want 42", f.velocity.Value())
	}

	blank := newJobForm(optimizer.JobRequest{})
	if blank.solutionType() != optimizer.Cruise || blank.velocity.Value() != "" {
		t.Fatalf("blank form = %v/%q, want cruise and empty velocity", blank.solutionType(), blank.velocity.Value())
	}
}

func TestJobForm_CycleTypeWraps(t *testing.T) {
	f := newJobForm(optimizer.JobRequest{SolutionType: optimizer.Cruise})
	f.cycleType(-1)
	if f.solutionType() != optimizer.MaxClimb {
		t.Fatalf("cycleType(-1) from cruise = %v, want max climb", f.solutionType())
	}
	f.cycleType(1)
	f.cycleType(1)
	if f.solutionType() != optimizer.OptimalClimb {
		t.Fatalf("cycleType(+2) = %v, want optimal climb", f.solutionType())
	}
}

func TestJobForm_MoveFocusWraps(t *testing.T) {
	f := newJobForm(optimizer.JobRequest{})
	f.moveFocus(1)
	if f.focus != fieldVelocity || !f.velocity.Focused() {
		t.Fatalf("focus = %d, want velocity field focused", f.focus)
	}
	f.moveFocus(1)
	if f.focus != fieldSolution || f.velocity.Focused() {
		t.Fatalf("focus = %d, want solution field", f.focus)
	}
}

func TestJobForm_Request(t *testing.T) {
	cases := []struct {
		name     string
		velocity string
		wantErr  string
	}{
		{"empty", "", "required"},
		{"zero", "0", "velocity"},
		{"valid", "45", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newJobForm(optimizer.JobRequest{SolutionType: optimizer.OptimalClimb})
			f.velocity.SetValue(tc.velocity)
			req, err := f.request()
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("request() error = %v, want it to mention %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("request() returned error: %v", err)
			}
			want := optimizer.JobRequest{SolutionType: optimizer.OptimalClimb, Velocity: 45}
			if req != want {
				t.Fatalf("request() = %+v, want %+v", req, want)
			}
		})
	}
}
