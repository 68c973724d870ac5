package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"workspace-bootstrap/internal/config"
	"workspace-bootstrap/internal/installer"
	"workspace-bootstrap/internal/logger"
	"workspace-bootstrap/internal/prompt"
	"workspace-bootstrap/internal/state"
)

// debug flag indicates whether debug logging should be enabled.
var debug bool

// configPath holds the path given with --config; empty means the XDG default.
var configPath string

// rootCmd provisions the machine when invoked without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "workspace-bootstrap",
	Short: "Set up a Mac for working with Claude Code in a personal GitHub workspace",
	Long: `Installs Xcode Command Line Tools, Homebrew, the GitHub CLI and Claude Code,
signs in to GitHub, creates your workspace repository from the template,
clones it and puts a launcher on the desktop. Safe to run again at any time.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(debug)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return provision(cmd.Context())
	},
}

func provision(ctx context.Context) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("cannot determine home directory: %w", err)
	}

	var confirmer prompt.Confirmer
	if console, err := prompt.NewConsole(); err == nil {
		defer func() {
			if cerr := console.Close(); cerr != nil {
				logger.Warn("[WARN] Failed to close terminal: %v\n", cerr)
			}
		}()
		confirmer = console
	} else {
		logger.Debug("[DEBUG] %v\n", err)
		confirmer = prompt.Unavailable{Err: err}
	}

	session := installer.NewSession(cfg, home, installer.NewExecRunner(), confirmer)
	report, runErr := installer.Provision(ctx, session, installer.Steps())

	state.SaveState(state.DefaultPath(), report.State())
	installer.PrintSummary(report)
	return runErr
}

// Execute registers flags and subcommands, runs the CLI and exits non-zero on failure.
func Execute() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML or TOML configuration file")

	rootCmd.AddCommand(statusCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var stepErr *installer.StepError
		if errors.As(err, &stepErr) {
			logger.Error("[ERROR] Stopped at %s: %v\n", stepErr.Step, stepErr.Err)
		} else {
			logger.Error("[ERROR] %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
