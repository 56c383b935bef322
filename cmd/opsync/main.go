package main

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/systmms/opsync/cmd/opsync/commands"
	"github.com/systmms/opsync/internal/config"
	"github.com/systmms/opsync/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	memguard.CatchInterrupt()

	err := run()
	memguard.Purge()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A local .env may supply OP_* variables; it is optional.
	_ = godotenv.Load()

	// Global flags
	var (
		configFile  string
		noColor     bool
		debug       bool
		logFormat   string
		strict      bool
		metricsFile string
	)

	cfg := &config.Config{}
	var zapReporter *logging.ZapReporter

	rootCmd := &cobra.Command{
		Use:   "opsync",
		Short: "Sync files and templates from 1Password",
		Long: `opsync reads 1passwordrc.yml and writes each declared file or template
to its destination, pulling content from 1Password through the op CLI.

Running opsync without a subcommand performs the sync.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(debug, noColor)

			cfg.Path = configFile
			cfg.Logger = logger
			cfg.Strict = strict
			cfg.MetricsFile = metricsFile

			// The transcript is the program's output; diagnostics stay on stderr.
			rep, err := logging.NewReporter(logFormat, os.Stdout, debug, noColor)
			if err != nil {
				return err
			}
			cfg.Reporter = rep
			if z, ok := rep.(*logging.ZapReporter); ok {
				zapReporter = z
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunSync(cmd.Context(), cfg)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Output format: text or json")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Exit non-zero when any item fails")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")

	rootCmd.AddCommand(
		commands.NewSyncCommand(cfg),
		commands.NewPlanCommand(cfg),
		commands.NewDoctorCommand(cfg),
	)

	err := rootCmd.Execute()
	if zapReporter != nil {
		_ = zapReporter.Sync()
	}
	return err
}
