// Package cli wires the ssdeepviz commands.
package cli

import (
	"fmt"
	"slices"
	"time"

	"github.com/joekir/ssdeepviz/internal/config"
	"github.com/joekir/ssdeepviz/internal/logger"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server    string
	Transport string
	Timeout   time.Duration
	Debug     bool
	Format    string // "text" | "json"

	cfg *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Config returns the configuration resolved before the command ran.
func (o *RootOptions) Config() *config.Config { return o.cfg }

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "ssdeepviz",
		Short:         "Step through a context-triggered piecewise hash",
		Long:          "Walks an ssdeep computation byte by byte and shows the rolling hash, trigger points and signature as they evolve.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			opts.cfg = cfg

			level, err := logger.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			logger.SetOutput(cmd.ErrOrStderr())
			logger.SetLevel(level)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", "", "engine server URL (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Transport, "transport", "", "engine transport: http, ws or local")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 0, "per-request timeout")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewViewCommand(opts))
	cmd.AddCommand(NewStepCommand(opts))
	cmd.AddCommand(NewHashCommand(opts))
	cmd.AddCommand(NewCompareCommand(opts))

	return cmd
}

// resolveConfig layers explicitly set flags over config.Load.
func resolveConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerURL = opts.Server
	}
	if flags.Changed("transport") {
		cfg.Transport = opts.Transport
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.Timeout
	}
	if flags.Changed("debug") && opts.Debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}
