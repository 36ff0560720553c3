package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/redmark/internal/config"
)

// RootOptions holds global flags shared by every command.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	LogFormat  string
	Author     string

	cfg config.Config
}

// Config returns the resolved configuration. Valid once the root
// command's PersistentPreRunE has run.
func (o *RootOptions) Config() config.Config {
	return o.cfg
}

// NewRootCommand creates the root command for the redmark CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "redmark",
		Short: "Redmark - tracked-change redlining for text documents",
		Long: `Redmark applies edits to text documents as tracked changes.

Edits land as CriticMarkup ({--deletions--}, {++insertions++}) with
author attribution, so every change stays reviewable. Documents flow
through an embedded engine behind a coordinator that survives restarts;
diff and markup previews run locally without the engine.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: redmark.yaml if present)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.Author, "author", "", "author attributed to tracked changes")

	cmd.AddCommand(NewExtractCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewDiffCommand(opts))
	cmd.AddCommand(NewMarkupCommand(opts))
	cmd.AddCommand(NewAcceptCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))

	return cmd
}

// resolve layers flag overrides onto the loaded configuration and
// installs the process logger.
func (o *RootOptions) resolve() error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	if o.LogFormat != "" {
		cfg.LogFormat = o.LogFormat
	}
	if o.Author != "" {
		cfg.Author = o.Author
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	hopts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, hopts)
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, hopts)
	}
	slog.SetDefault(slog.New(handler))

	o.cfg = cfg
	return nil
}
