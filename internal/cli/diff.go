package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/redmark/internal/diffgen"
	"github.com/dshills/redmark/internal/redline"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	JSON bool
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff <original> <modified>",
		Short: "Generate structured edits from two documents",
		Long: `Generate structured edits from two documents via word-level diff.

The edit list describes how to turn the original into the modified
version: deletions, insertions anchored to preceding context, and
replacements. With --json the list is emitted in the format the apply
command accepts.

Example:
  redmark diff contract.txt contract_v2.txt
  redmark diff contract.txt contract_v2.txt --json > edits.json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "emit edits as JSON")

	return cmd
}

func runDiff(cmd *cobra.Command, opts *DiffOptions, originalPath, modifiedPath string) error {
	original, err := os.ReadFile(originalPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "read original", err)
	}
	modified, err := os.ReadFile(modifiedPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "read modified", err)
	}

	edits := diffgen.Generate(string(original), string(modified))
	out := cmd.OutOrStdout()

	if opts.JSON {
		if edits == nil {
			edits = []redline.Edit{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(edits); err != nil {
			return WrapExitError(ExitFailure, "encode edits", err)
		}
		return nil
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Found %d changes:\n", len(edits))
	for _, e := range edits {
		switch {
		case e.NewText == "":
			fmt.Fprintf(out, "[-] %s\n", e.TargetText)
		case e.TargetText == "":
			fmt.Fprintf(out, "[+] %s\n", e.NewText)
		default:
			fmt.Fprintf(out, "[~] '%s' -> '%s'\n", e.TargetText, e.NewText)
		}
	}
	return nil
}
