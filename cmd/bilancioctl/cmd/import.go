package cmd

import (
	"github.com/spf13/cobra"

	"bilancio/internal/seed"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import categories and recurring rules from YAML",
	Long: `Import categories, recurring rules and their monthly amounts from
a YAML file. Entries already in the ledger are skipped, so the same
file can be imported again.

Example:
  bilancioctl import rules.yaml`,
	Args: cobra.ExactArgs(1),
	Run:  runImport,
}

func runImport(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	result, err := openBackend(ctx, false)
	exitOnError(err, "failed to open ledger")
	defer result.Cleanup()

	res, err := seed.LoadAndApply(ctx, result.Services, args[0], now())
	exitOnError(err, "failed to import "+args[0])
	renderImport(cmd.OutOrStdout(), res)
}
