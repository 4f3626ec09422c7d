package cmd

import (
	"github.com/lehigh-university-libraries/covermatch/internal/evalcmd"
	"github.com/spf13/cobra"
)

func newEvalCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Cover identification evaluation tools",
		Long: `Evaluation tools for measuring how often covers are identified correctly.

Label a directory of photos, run the engine over the labeled dataset against
the configured catalogue, and report confirmed, uncertain and unknown decisions.`,
	}

	cmd.AddCommand(evalcmd.NewLabelCmd())
	cmd.AddCommand(evalcmd.NewInspectCmd())
	cmd.AddCommand(evalcmd.NewRunCmd(opts.openApp))
	cmd.AddCommand(evalcmd.NewReportCmd())

	return cmd
}
