// Package cli implements the mcasconvert command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/mcasconvert/internal/config"
	"github.com/JonMunkholm/mcasconvert/internal/core"
	"github.com/JonMunkholm/mcasconvert/internal/logging"
)

// RootOptions holds global flags for all commands and the configuration
// loaded before any subcommand runs.
type RootOptions struct {
	LogLevel  string
	LogFormat string
	EnvFiles  []string

	Config *config.Config
}

// NewRootCommand creates the root command for the mcasconvert CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "mcasconvert",
		Short: "Convert wide MCAS exports to the canonical long format",
		Long: `Convert wide MCAS score exports (one row per student) into the canonical
long format (one row per student and subject) used by the student-records import.

Configuration comes from environment variables, optionally loaded from .env
files. Flags override the environment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error); overrides LOG_LEVEL")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format (text|json); overrides LOG_FORMAT")
	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", nil, "env files to load before reading configuration (default .env)")

	// Add subcommands
	cmd.AddCommand(NewConvertCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSubjectsCommand(opts))

	return cmd
}

// load reads env files and configuration, applies flag overrides, and sets up
// logging on the command's stderr.
func (o *RootOptions) load(cmd *cobra.Command) error {
	loaded, err := config.LoadEnvFiles(o.EnvFiles...)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Logging.Format = o.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded",
		"env_files", loaded,
		"subjects", cfg.Convert.Subjects,
		"policy", cfg.Convert.Policy,
		"database", cfg.Database.Enabled(),
	)

	o.Config = cfg
	return nil
}

// pipeline builds a pipeline from the loaded configuration, with optional
// subject and policy overrides from flags.
func (o *RootOptions) pipeline(subjects []string, policy string) (*core.Pipeline, error) {
	cfg := *o.Config
	if len(subjects) > 0 {
		cfg.Convert.Subjects = subjects
	}
	if policy != "" {
		cfg.Convert.Policy = policy
	}

	pc, err := cfg.ToPipelineConfig()
	if err != nil {
		return nil, err
	}
	return core.NewPipeline(pc)
}

// addPipelineFlags registers the --subjects and --policy flags.
func addPipelineFlags(cmd *cobra.Command, subjects *[]string, policy *string) {
	cmd.Flags().StringSliceVar(subjects, "subjects", nil,
		"subjects to expand, in order ("+strings.Join(core.SubjectKeys(), ",")+"); overrides MCAS_SUBJECTS")
	cmd.Flags().StringVar(policy, "policy", "",
		"unknown performance level policy (fail|passthrough); overrides PERF_LEVEL_POLICY")
}

// reportError prints the user-facing form of err to w and returns err.
func reportError(w io.Writer, err error) error {
	if msg := core.FormatUserError(err); msg != "" {
		fmt.Fprintln(w, msg)
	}
	return err
}
