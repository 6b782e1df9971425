package app

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/foilwatch/internal/config"
	"github.com/five82/foilwatch/internal/optimizer"
	"github.com/five82/foilwatch/internal/watch"
)

// fakeOptimizer serves /run, a scripted /get_status sequence that repeats
// its last body, and a one-pixel PNG.
type fakeOptimizer struct {
	server *httptest.Server

	mu        sync.Mutex
	statuses  []string
	served    int
	runs      []string
	runStatus int
	pngStatus int
}

func newFakeOptimizer(t *testing.T, statuses ...string) *fakeOptimizer {
	t.Helper()
	f := &fakeOptimizer{statuses: statuses, runStatus: http.StatusOK, pngStatus: http.StatusOK}

	var pngBuf bytes.Buffer
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	require.NoError(t, png.Encode(&pngBuf, img))

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.URL.Path {
		case "/run":
			buf := new(bytes.Buffer)
			_, _ = buf.ReadFrom(r.Body)
			f.runs = append(f.runs, buf.String())
			w.WriteHeader(f.runStatus)
		case "/get_status":
			idx := f.served
			if idx >= len(f.statuses) {
				idx = len(f.statuses) - 1
			}
			f.served++
			_, _ = w.Write([]byte(f.statuses[idx]))
		case "/outputs/airfoil.png":
			w.WriteHeader(f.pngStatus)
			if f.pngStatus == http.StatusOK {
				_, _ = w.Write(pngBuf.Bytes())
			}
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func testOptions(t *testing.T, apiBase string) Options {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return Options{
		ConfigPath: filepath.Join(home, "missing.toml"),
		APIBase:    apiBase,
		PollEvery:  time.Millisecond,
		LogPath:    filepath.Join(home, "foilwatch.log"),
		OutputDir:  filepath.Join(home, "outputs"),
	}
}

func fastProbe(t *testing.T) {
	t.Helper()
	attempts, delay := probeAttempts, probeDelay
	probeAttempts, probeDelay = 2, time.Millisecond
	t.Cleanup(func() { probeAttempts, probeDelay = attempts, delay })
}

func TestRunHeadless_Completes(t *testing.T) {
	fastProbe(t)
	srv := newFakeOptimizer(t,
		`{}`,
		`{"fitness_tracker":[[1,0.5]]}`,
		`{"fitness_tracker":[[1,0.5],[2,0.7]]}`,
		`{"status":"Complete.","Airfoil":{"AOA":12,"Velocity":30}}`,
	)
	opts := testOptions(t, srv.server.URL)

	var out bytes.Buffer
	req := optimizer.JobRequest{SolutionType: optimizer.MaxClimb, Velocity: 30}
	outcome, err := RunHeadless(context.Background(), opts, req, &out)
	require.NoError(t, err)

	assert.Equal(t, watch.PhaseCompleted, outcome.Phase)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, 12.0, outcome.Result.AngleOfAttack)
	assert.Equal(t, 2, outcome.Points)

	text := out.String()
	assert.Contains(t, text, "submitted max-climb at 30")
	assert.Contains(t, text, "generation 1")
	assert.Contains(t, text, "generation 2")
	assert.Contains(t, text, "optimisation complete")
	assert.Contains(t, text, "2 points")
	assert.Contains(t, text, "airfoil written to "+opts.OutputDir)

	srv.mu.Lock()
	assert.Equal(t, []string{`{"solution_type":3,"velocity":30}`}, trimAll(srv.runs))
	srv.mu.Unlock()

	entries, err := os.ReadDir(opts.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	logData, err := os.ReadFile(opts.LogPath)
	require.NoError(t, err)
	assert.Contains(t, string(logData), "session-completed")
}

func TestRunHeadless_ArtifactFailureIsNotFatal(t *testing.T) {
	fastProbe(t)
	srv := newFakeOptimizer(t, `{"status":"Complete.","Airfoil":{"AOA":3}}`)
	srv.mu.Lock()
	srv.pngStatus = http.StatusInternalServerError
	srv.mu.Unlock()
	opts := testOptions(t, srv.server.URL)

	var out bytes.Buffer
	outcome, err := RunHeadless(context.Background(), opts, optimizer.JobRequest{SolutionType: optimizer.Cruise, Velocity: 10}, &out)
	require.NoError(t, err)
	assert.Equal(t, watch.PhaseCompleted, outcome.Phase)
	assert.Contains(t, out.String(), "airfoil not written")
}

func TestRunHeadless_FailedSession(t *testing.T) {
	fastProbe(t)
	srv := newFakeOptimizer(t, `{}`, `not json`)
	opts := testOptions(t, srv.server.URL)

	var out bytes.Buffer
	outcome, err := RunHeadless(context.Background(), opts, optimizer.JobRequest{SolutionType: optimizer.Cruise, Velocity: 10}, &out)
	require.NoError(t, err)
	assert.Equal(t, watch.PhaseFailed, outcome.Phase)
	assert.Contains(t, out.String(), "polling stopped")
}

func TestRunHeadless_SubmitRejected(t *testing.T) {
	fastProbe(t)
	srv := newFakeOptimizer(t, `{}`)
	srv.mu.Lock()
	srv.runStatus = http.StatusServiceUnavailable
	srv.mu.Unlock()
	opts := testOptions(t, srv.server.URL)

	_, err := RunHeadless(context.Background(), opts, optimizer.JobRequest{SolutionType: optimizer.Cruise, Velocity: 10}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "submit job")
}

func TestRunHeadless_Cancelled(t *testing.T) {
	fastProbe(t)
	srv := newFakeOptimizer(t, `{}`)
	opts := testOptions(t, srv.server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	outcome, err := RunHeadless(ctx, opts, optimizer.JobRequest{SolutionType: optimizer.Cruise, Velocity: 10}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, watch.PhaseCancelled, outcome.Phase)
}

func TestEnsureAvailable(t *testing.T) {
	fastProbe(t)

	down := httptest.NewServer(http.NotFoundHandler())
	base := down.URL
	down.Close()
	client, err := optimizer.NewClient(base, time.Second)
	require.NoError(t, err)
	err = ensureAvailable(context.Background(), client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reachable")

	// Any HTTP answer counts as reachable.
	erroring := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer erroring.Close()
	client, err = optimizer.NewClient(erroring.URL, time.Second)
	require.NoError(t, err)
	assert.NoError(t, ensureAvailable(context.Background(), client))
}

func TestProbe(t *testing.T) {
	tests := map[string]struct {
		body string
		want string
	}{
		"pending":  {`{}`, "status  pending"},
		"running":  {`{"fitness_tracker":[[],[1,0.2],[2,0.4]]}`, "2 points"},
		"complete": {`{"status":"Complete.","Airfoil":{"AOA":7.5,"d2Yl":0.1}}`, "angle of attack 7.500°, d2Yl 0.1"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			srv := newFakeOptimizer(t, tt.body)
			var out bytes.Buffer
			require.NoError(t, Probe(context.Background(), testOptions(t, srv.server.URL), &out))
			assert.Contains(t, out.String(), tt.want)
		})
	}

	srv := newFakeOptimizer(t, `[1,2]`)
	err := Probe(context.Background(), testOptions(t, srv.server.URL), &bytes.Buffer{})
	var ce *optimizer.ClassificationError
	assert.ErrorAs(t, err, &ce)
}

func TestApplyOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := config.Defaults()
	err := applyOverrides(&cfg, Options{
		APIBase:     " 10.1.1.1:9000 ",
		PollEvery:   250 * time.Millisecond,
		OutputDir:   "~/airfoils",
		Backfill:    true,
		StrictOrder: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "10.1.1.1:9000", cfg.APIBase)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, filepath.Join(home, "airfoils"), cfg.OutputDir)
	assert.True(t, cfg.Backfill)
	assert.Equal(t, watch.OrderFail, cfg.OutOfOrder)

	assert.Error(t, applyOverrides(&cfg, Options{PollEvery: -time.Second}))
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
