package cli

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/redmark/internal/config"
	"github.com/dshills/redmark/internal/diffgen"
	"github.com/dshills/redmark/internal/redline"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Output string
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <original> <changes>",
		Short: "Apply edits to a document as tracked changes",
		Long: `Apply edits to a document as tracked changes.

The changes argument is either a JSON edit list (.json) or a modified
copy of the document; for the latter the edits are derived with a
word-level diff. Every edit lands as CriticMarkup with author
attribution. Edits whose target cannot be located are skipped, and the
command exits with status 1 when any edit was skipped.

Example:
  redmark apply contract.txt edits.json
  redmark apply contract.txt contract_v2.txt --author reviewer -o redline.txt`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: <original>_redlined)")

	return cmd
}

func runApply(cmd *cobra.Command, opts *ApplyOptions, original, changes string) error {
	doc, err := os.ReadFile(original)
	if err != nil {
		return WrapExitError(ExitCommandError, "read document", err)
	}

	errw := cmd.ErrOrStderr()
	var edits []redline.Edit
	if strings.EqualFold(filepath.Ext(changes), ".json") {
		fmt.Fprintf(errw, "Loading structured edits from %s...\n", changes)
		edits, err = LoadEdits(changes)
		if err != nil {
			return WrapExitError(ExitCommandError, "load edits", err)
		}
	} else {
		fmt.Fprintf(errw, "Calculating diff from text file %s...\n", changes)
		modified, err := os.ReadFile(changes)
		if err != nil {
			return WrapExitError(ExitCommandError, "read modified document", err)
		}
		edits = diffgen.Generate(string(doc), string(modified))
	}
	fmt.Fprintf(errw, "Applying %d edits...\n", len(edits))

	ctx := cmd.Context()
	cl := newClient(opts.Config())
	if err := cl.EnsureEngine(ctx); err != nil {
		return WrapExitError(ExitFailure, "engine not ready", err)
	}
	res, err := cl.Apply(ctx, doc, edits, authorOrDefault(opts.Config()))
	if err != nil {
		return WrapExitError(ExitFailure, "apply failed", err)
	}

	out := opts.Output
	if out == "" {
		out = redlinedPath(original)
	}
	if err := os.WriteFile(out, res.ResultBytes, 0o644); err != nil {
		return WrapExitError(ExitCommandError, "write output", err)
	}

	fmt.Fprintf(errw, "Saved to %s\n", out)
	fmt.Fprintf(errw, "Stats: %d applied, %d skipped.\n", res.Applied, res.Skipped)
	if res.Skipped > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d edits skipped", res.Skipped, len(edits)))
	}
	return nil
}

// redlinedPath names the default apply output: the original with a
// _redlined suffix, or the original itself when it already carries one.
func redlinedPath(original string) string {
	ext := filepath.Ext(original)
	stem := strings.TrimSuffix(original, ext)
	if strings.HasSuffix(stem, "_redlined") {
		return original
	}
	return stem + "_redlined" + ext
}

// authorOrDefault resolves the tracked-change author: configuration
// first, then the OS user, then a fixed fallback.
func authorOrDefault(cfg config.Config) string {
	if cfg.Author != "" {
		return cfg.Author
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "Redmark"
}
