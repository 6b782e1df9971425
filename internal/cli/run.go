package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/foilwatch/internal/app"
	"github.com/five82/foilwatch/internal/optimizer"
	"github.com/five82/foilwatch/internal/prefs"
	"github.com/five82/foilwatch/internal/watch"
)

func newRunCmd(g *globalFlags) *cobra.Command {
	var (
		solution    string
		velocity    int
		outDir      string
		backfill    bool
		strictOrder bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit a job and watch it without the UI",
		Long: `Submits one optimisation job, prints every fitness point as it arrives
and, when the run ends, a summary with a fitness histogram and the path of
the rotated airfoil image.

Flags that are not given fall back to the last job submitted from the UI.
Exits non-zero unless the run completes.`,
		Example: `  foilwatch run --solution cruise --velocity 30
  foilwatch run -s 3 --velocity 45 --out ./airfoils --strict-order`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := g.options(cmd)
			remembered, _ := prefs.Load(opts.PrefsPath)

			req, err := resolveJob(cmd, solution, velocity, remembered.Request())
			if err != nil {
				return err
			}

			opts.OutputDir = outDir
			opts.Backfill = backfill
			opts.StrictOrder = strictOrder

			outcome, err := app.RunHeadless(cmd.Context(), opts, req, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return outcomeError(outcome)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&solution, "solution", "s", "", "solution type: 1|2|3 or cruise|optimal-climb|max-climb")
	f.IntVar(&velocity, "velocity", 0, "flight velocity")
	f.StringVar(&outDir, "out", "", "directory for the airfoil image (overrides config)")
	f.BoolVar(&backfill, "backfill", false, "deliver every unseen point of each poll, not only the newest")
	f.BoolVar(&strictOrder, "strict-order", false, "fail the session on an out-of-order point instead of skipping it")

	return cmd
}

// outcomeError turns a session that did not complete into the error reported
// on stderr.
func outcomeError(outcome watch.Outcome) error {
	switch outcome.Phase {
	case watch.PhaseCompleted:
		return nil
	case watch.PhaseFailed:
		return fmt.Errorf("session %s: %s", outcome.Phase, outcome.Message())
	default:
		return fmt.Errorf("session %s", outcome.Phase)
	}
}

// resolveJob builds the request from the flags that were set, filling the
// rest from fallback.
func resolveJob(cmd *cobra.Command, solution string, velocity int, fallback optimizer.JobRequest) (optimizer.JobRequest, error) {
	req := fallback
	if cmd.Flags().Changed("solution") {
		t, err := optimizer.ParseSolutionType(solution)
		if err != nil {
			return optimizer.JobRequest{}, err
		}
		req.SolutionType = t
	}
	if cmd.Flags().Changed("velocity") {
		req.Velocity = velocity
	}
	if err := req.Validate(); err != nil {
		return optimizer.JobRequest{}, fmt.Errorf("invalid job: %w", err)
	}
	return req, nil
}
