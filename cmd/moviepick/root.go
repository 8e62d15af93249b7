package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/amaumene/moviepick/internal/config"
	"github.com/amaumene/moviepick/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	Format string // "json" | "text"
}

// ValidFormats defines the allowed output formats
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the moviepick command tree. Without a subcommand it serves.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "moviepick",
		Short: "Group movie night backlog and voting ritual",
		Long: `Keeps a shared backlog of movies and shows, scores it with every
participant's vote and runs the ballot ritual that picks tonight's title.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewTonightCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))

	return cmd
}

// loadCLI loads configuration and a logger that keeps stdout free for command output
func loadCLI(stderr io.Writer) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.SetOutput(stderr)
	return cfg, logger, nil
}
