package app

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/five82/foilwatch/internal/optimizer"
	"github.com/five82/foilwatch/internal/report"
	"github.com/five82/foilwatch/internal/state"
	"github.com/five82/foilwatch/internal/watch"
)

const (
	histogramBins  = 10
	histogramWidth = 40
)

// RunHeadless submits req, prints every progress point to out as it arrives
// and a summary once the session ends. The returned error covers setup and
// submission; how the session ended is in the Outcome.
func RunHeadless(ctx context.Context, opts Options, req optimizer.JobRequest, out io.Writer) (watch.Outcome, error) {
	env, err := bootstrap(opts)
	if err != nil {
		return watch.Outcome{}, err
	}
	defer env.close()
	ctx = env.logger.WithContext(ctx)

	if err := ensureAvailable(ctx, env.client); err != nil {
		return watch.Outcome{}, err
	}

	points := make(chan optimizer.DataPoint, 64)
	observer := watch.ProgressFunc(func(ctx context.Context, p optimizer.DataPoint) error {
		select {
		case points <- p:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	store := &state.Store{}
	ctrl := newController(ctx, env, store, observer)

	h, err := ctrl.Submit(req)
	if err != nil {
		return watch.Outcome{}, err
	}
	fmt.Fprintf(out, "submitted %s at %d (session %s)\n", req.SolutionType, req.Velocity, h.ID)

	var outcome watch.Outcome
	g := errgroup.Group{}
	g.Go(func() error {
		defer close(points)
		// The session ends on its own once ctx is cancelled.
		o, err := h.Wait(context.Background())
		outcome = o
		return err
	})
	g.Go(func() error {
		var writeErr error
		for p := range points {
			if writeErr != nil {
				continue // keep draining so the session never blocks
			}
			if _, err := fmt.Fprintf(out, "generation %-6g fitness %.6g\n", p.Index, p.Value); err != nil {
				writeErr = fmt.Errorf("write progress: %w", err)
			}
		}
		return writeErr
	})
	if err := g.Wait(); err != nil {
		return outcome, err
	}

	writeSummary(out, outcome, store.Snapshot())
	return outcome, nil
}

func writeSummary(out io.Writer, outcome watch.Outcome, snap state.Snapshot) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, outcome.Message())
	fmt.Fprintln(out, report.Summarize(snap.Points))
	if err := report.WriteHistogram(out, snap.Points, histogramBins, histogramWidth); err != nil {
		fmt.Fprintf(out, "histogram: %v\n", err)
	}
	if res := outcome.Result; res != nil {
		fmt.Fprintln(out, formatResult(*res))
	}
	switch {
	case snap.ArtifactPath != "":
		fmt.Fprintf(out, "airfoil written to %s\n", snap.ArtifactPath)
	case snap.ArtifactErr != nil:
		fmt.Fprintf(out, "airfoil not written: %v\n", snap.ArtifactErr)
	}
}

func formatResult(res optimizer.Result) string {
	s := fmt.Sprintf("angle of attack %.3f°", res.AngleOfAttack)
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"velocity", res.Velocity},
		{"d2Yl", res.D2Yl},
		{"y_TE", res.YTE},
		{"a_TE", res.ATE},
	} {
		if f.v != nil {
			s += fmt.Sprintf(", %s %.4g", f.name, *f.v)
		}
	}
	return s
}

// Probe issues a single status request and prints how it classifies.
func Probe(ctx context.Context, opts Options, out io.Writer) error {
	env, err := bootstrap(opts)
	if err != nil {
		return err
	}
	defer env.close()
	ctx = env.logger.WithContext(ctx)

	body, err := env.client.Status(ctx)
	if err != nil {
		return fmt.Errorf("poll status: %w", err)
	}
	resp, err := optimizer.Classify(body)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "server  %s\n", env.client.BaseURL())
	switch resp.Kind {
	case optimizer.KindComplete:
		fmt.Fprintf(out, "status  complete\nresult  %s\n", formatResult(*resp.Result))
	case optimizer.KindProgress:
		sum := report.Summarize(resp.Series)
		fmt.Fprintf(out, "status  running\nseries  %s\n", sum)
	default:
		fmt.Fprintln(out, "status  pending")
	}
	return nil
}
