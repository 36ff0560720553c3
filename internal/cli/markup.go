package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/redmark/internal/markup"
)

// MarkupOptions holds flags for the markup command.
type MarkupOptions struct {
	*RootOptions
	Output    string
	Index     bool
	Highlight bool
}

// NewMarkupCommand creates the markup command.
func NewMarkupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MarkupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "markup <input> <edits.json>",
		Short: "Render edits over a document as CriticMarkup",
		Long: `Render edits over a document as CriticMarkup.

The edits are located in the text with fuzzy matching (smart quotes and
markdown formatting are tolerated) and spliced in as {--deletions--},
{++insertions++}, and {>>comments<<}. Targets that cannot be found are
dropped; overlapping matches keep the earlier edit in the list. This is
a purely textual preview and does not involve the engine.

Example:
  redmark markup contract.txt edits.json
  redmark markup contract.md edits.json --index --highlight`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMarkup(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: <input>.md)")
	cmd.Flags().BoolVarP(&opts.Index, "index", "i", false, "include edit indices in comments")
	cmd.Flags().BoolVar(&opts.Highlight, "highlight", false, "render targets as highlights instead of changes")

	return cmd
}

func runMarkup(cmd *cobra.Command, opts *MarkupOptions, input, editsPath string) error {
	text, err := os.ReadFile(input)
	if err != nil {
		return WrapExitError(ExitCommandError, "read document", err)
	}
	edits, err := LoadEdits(editsPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load edits", err)
	}

	errw := cmd.ErrOrStderr()
	if len(edits) == 0 {
		fmt.Fprintln(errw, "Warning: no edits found in JSON file.")
	}

	result := markup.Apply(string(text), edits, markup.Options{
		IncludeIndex:  opts.Index,
		HighlightOnly: opts.Highlight,
	})

	out := opts.Output
	if out == "" {
		out = markupPath(input)
	}
	if err := os.WriteFile(out, []byte(result), 0o644); err != nil {
		return WrapExitError(ExitCommandError, "write output", err)
	}

	fmt.Fprintf(errw, "Saved CriticMarkup to %s\n", out)
	fmt.Fprintf(errw, "Stats: %d edits processed.\n", len(edits))
	return nil
}

// markupPath names the default markup output: the input with a .md
// extension, or a _markup sibling when overwriting the input itself.
func markupPath(input string) string {
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(input, ext)
	if strings.EqualFold(ext, ".md") {
		return stem + "_markup.md"
	}
	return stem + ".md"
}
