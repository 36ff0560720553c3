package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report engine readiness",
		Long: `Report engine readiness.

Status is a pure read: it never starts the engine or an initialization
attempt, so it is safe to call at any time.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, rootOpts)
		},
	}
	return cmd
}

func runStatus(cmd *cobra.Command, opts *RootOptions) error {
	cl := newClient(opts.Config())
	st, err := cl.Status(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "status check failed", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Engine state: %s\n", st.State)
	if st.Reason != "" {
		fmt.Fprintf(out, "Failure reason: %s\n", st.Reason)
	}
	return nil
}
