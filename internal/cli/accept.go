package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// AcceptOptions holds flags for the accept command.
type AcceptOptions struct {
	*RootOptions
	Output string
}

// NewAcceptCommand creates the accept command.
func NewAcceptCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AcceptOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "accept <input>",
		Short: "Accept every tracked change in a document",
		Long: `Accept every tracked change in a document.

Insertions and highlights become plain text; deletions and change
metadata are removed. The input is left untouched and the accepted copy
is written alongside it.

Example:
  redmark accept contract_redlined.txt
  redmark accept contract_redlined.txt -o contract_final.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccept(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: <input>_clean)")

	return cmd
}

func runAccept(cmd *cobra.Command, opts *AcceptOptions, input string) error {
	doc, err := os.ReadFile(input)
	if err != nil {
		return WrapExitError(ExitCommandError, "read document", err)
	}

	ctx := cmd.Context()
	cl := newClient(opts.Config())
	if err := cl.EnsureEngine(ctx); err != nil {
		return WrapExitError(ExitFailure, "engine not ready", err)
	}
	result, err := cl.AcceptAll(ctx, doc)
	if err != nil {
		return WrapExitError(ExitFailure, "accept failed", err)
	}

	out := opts.Output
	if out == "" {
		out = acceptedPath(input)
	}
	if err := os.WriteFile(out, result, 0o644); err != nil {
		return WrapExitError(ExitCommandError, "write output", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved to %s\n", out)
	return nil
}

// acceptedPath names the default accept output: the input with a _clean
// suffix before the extension.
func acceptedPath(input string) string {
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(input, ext)
	return stem + "_clean" + ext
}
