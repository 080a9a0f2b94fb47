package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bilancio/internal/export"
)

var (
	exportYear int
	exportOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the ledger to files",
}

var exportXLSXCmd = &cobra.Command{
	Use:   "xlsx",
	Short: "Export a year summary as an Excel workbook",
	Long: `Write a workbook with a month-by-month summary sheet and a
category breakdown sheet for the year.

Example:
  bilancioctl export xlsx --year 2025 --out bilancio-2025.xlsx`,
	Run: runExportXLSX,
}

func init() {
	exportXLSXCmd.Flags().IntVar(&exportYear, "year", now().Year(), "year to export")
	exportXLSXCmd.Flags().StringVar(&exportOut, "out", "", "output file (default bilancio-<year>.xlsx)")
	exportCmd.AddCommand(exportXLSXCmd)
}

func runExportXLSX(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	result, err := openBackend(ctx, false)
	exitOnError(err, "failed to open ledger")
	defer result.Cleanup()

	summary, err := result.Aggregator.YearSummary(ctx, exportYear)
	exitOnError(err, "failed to build year summary")

	out := exportOut
	if out == "" {
		out = fmt.Sprintf("bilancio-%d.xlsx", exportYear)
	}
	exitOnError(export.SaveYear(out, summary), "failed to export workbook")
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d to %s\n", exportYear, out)
}
