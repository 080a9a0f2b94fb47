// Package cmd provides the bilancioctl commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"bilancio/internal/backend"
	"bilancio/internal/cli"
	"bilancio/internal/config"
	applog "bilancio/internal/log"
)

var (
	envFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bilancioctl",
	Short: "Inspect and maintain the bilancio ledger",
	Long: `bilancioctl works directly on the ledger configured through the
environment (DATA_BACKEND, SQLITE_DB_PATH, ...).

It supports:
- Month and year reports
- Previewing and storing installment plans
- Exporting a year to XLSX
- Importing categories and recurring rules from YAML

Example:
  bilancioctl report month --year 2025 --month 4
  bilancioctl split --total 100 --count 3 --first 2025-01-31
  bilancioctl export xlsx --year 2025 --out bilancio-2025.xlsx
  bilancioctl import rules.yaml`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if envFile != "" {
			cli.LoadEnvFile(envFile)
		} else {
			cli.LoadEnvFile()
		}

		level := slog.LevelWarn
		if debug {
			level = slog.LevelDebug
		}
		applog.SetDefault(applog.New(applog.Config{
			Level:     level,
			Component: applog.ComponentCLI,
			Output:    os.Stderr,
		}))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file to load (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

// openBackend builds the same backend the server uses, without the seed
// file unless withSeed is set.
func openBackend(ctx context.Context, withSeed bool) (*backend.BackendResult, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !withSeed {
		bc.SeedFile = ""
	}
	return backend.NewFactory(slog.Default()).CreateBackend(ctx, bc)
}

// now is read once per command.
var now = time.Now

// exitOnError reports err and exits.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
