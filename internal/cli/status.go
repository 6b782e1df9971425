package cli

import (
	"github.com/spf13/cobra"

	"github.com/five82/foilwatch/internal/app"
)

func newStatusCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what the optimizer is doing",
		Long: `Issues a single status request and prints how it classifies: pending,
running with its fitness series so far, or complete with the result.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Probe(cmd.Context(), g.options(cmd), cmd.OutOrStdout())
		},
	}
}
