package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/foilwatch/internal/optimizer"
	"github.com/five82/foilwatch/internal/watch"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args,
		"--config", filepath.Join(home, "missing.toml"),
		"--log", filepath.Join(home, "foilwatch.log"),
	))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func findCmd(t *testing.T, root *cobra.Command, name string) *cobra.Command {
	t.Helper()
	for _, c := range root.Commands() {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("command %q not registered", name)
	return nil
}

func TestRootCommand_RegistersSubcommandsAndFlags(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, "foilwatch", root.Use)

	run := findCmd(t, root, "run")
	status := findCmd(t, root, "status")
	assert.Error(t, status.Args(status, []string{"extra"}))

	for _, name := range []string{"config", "api", "poll", "log", "verbose"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "missing persistent flag %q", name)
	}
	for _, name := range []string{"solution", "velocity", "out", "backfill", "strict-order"} {
		assert.NotNil(t, run.Flags().Lookup(name), "missing run flag %q", name)
	}
}

func TestResolveJob(t *testing.T) {
	fallback := optimizer.JobRequest{SolutionType: optimizer.Cruise, Velocity: 30}

	t.Run("unset flags use fallback", func(t *testing.T) {
		cmd := newRunCmd(&globalFlags{})
		req, err := resolveJob(cmd, "", 0, fallback)
		require.NoError(t, err)
		assert.Equal(t, fallback, req)
	})

	t.Run("set flags override", func(t *testing.T) {
		cmd := newRunCmd(&globalFlags{})
		require.NoError(t, cmd.Flags().Set("solution", "max-climb"))
		require.NoError(t, cmd.Flags().Set("velocity", "45"))
		req, err := resolveJob(cmd, "max-climb", 45, fallback)
		require.NoError(t, err)
		assert.Equal(t, optimizer.JobRequest{SolutionType: optimizer.MaxClimb, Velocity: 45}, req)
	})

	t.Run("unknown solution", func(t *testing.T) {
		cmd := newRunCmd(&globalFlags{})
		require.NoError(t, cmd.Flags().Set("solution", "9"))
		_, err := resolveJob(cmd, "9", 0, fallback)
		assert.ErrorContains(t, err, "unknown solution type")
	})

	t.Run("non-positive velocity", func(t *testing.T) {
		cmd := newRunCmd(&globalFlags{})
		require.NoError(t, cmd.Flags().Set("velocity", "0"))
		_, err := resolveJob(cmd, "", 0, fallback)
		assert.ErrorContains(t, err, "invalid job")
	})
}

func TestRunCommand_InvalidJobFailsBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	_, err := execute(t, "run", "--api", srv.URL, "--solution", "glide")
	assert.ErrorContains(t, err, "unknown solution type")
	assert.Zero(t, hits.Load())
}

func TestOutcomeError(t *testing.T) {
	tests := []struct {
		name    string
		outcome watch.Outcome
		want    string
	}{
		{"completed", watch.Outcome{Phase: watch.PhaseCompleted, Result: &optimizer.Result{AngleOfAttack: 4}}, ""},
		{"failed", watch.Outcome{Phase: watch.PhaseFailed, Err: errors.New("poll status: connection refused")}, "session failed: polling stopped: poll status: connection refused"},
		{"cancelled", watch.Outcome{Phase: watch.PhaseCancelled}, "session cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := outcomeError(tt.outcome)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestStatusCommand_PrintsClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get_status" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"fitness_tracker":[[],[1,0.25],[2,0.5]]}`))
	}))
	defer srv.Close()

	out, err := execute(t, "status", "--api", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "status  running")
	assert.Contains(t, out, "2 points")
}

func TestStatusCommand_NegativePollRejected(t *testing.T) {
	_, err := execute(t, "status", "--api", "127.0.0.1:1", "--poll=-1s")
	assert.Error(t, err)
}
