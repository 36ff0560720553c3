package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/redmark/internal/protocol"
)

// ExtractOptions holds flags for the extract command.
type ExtractOptions struct {
	*RootOptions
	Output string
	Clean  bool
}

// NewExtractCommand creates the extract command.
func NewExtractCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExtractOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "extract <input>",
		Short: "Extract text from a document",
		Long: `Extract text from a document.

By default the raw view is returned, pending tracked changes included.
With --clean the accepted view is returned instead: insertions kept,
deletions and change metadata dropped.

Example:
  redmark extract contract.txt
  redmark extract contract.txt --clean -o contract_clean.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.Clean, "clean", false, "return the accepted view")

	return cmd
}

func runExtract(cmd *cobra.Command, opts *ExtractOptions, input string) error {
	doc, err := os.ReadFile(input)
	if err != nil {
		return WrapExitError(ExitCommandError, "read document", err)
	}

	ctx := cmd.Context()
	cl := newClient(opts.Config())
	if err := cl.EnsureEngine(ctx); err != nil {
		return WrapExitError(ExitFailure, "engine not ready", err)
	}

	mode := protocol.ModeRaw
	if opts.Clean {
		mode = protocol.ModeClean
	}
	text, err := cl.Extract(ctx, doc, mode)
	if err != nil {
		return WrapExitError(ExitFailure, "extract failed", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(text), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "write output", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Extracted text to %s\n", opts.Output)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
