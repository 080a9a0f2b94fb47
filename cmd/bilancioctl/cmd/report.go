package cmd

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	reportYear  int
	reportMonth int
	reportJSON  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print month or year summaries",
}

var reportMonthCmd = &cobra.Command{
	Use:   "month",
	Short: "Summarize one month",
	Long: `Summarize fixed and variable incomes and expenses of a month,
with the recurring entries and the category breakdown.

Example:
  bilancioctl report month --year 2025 --month 4`,
	Run: runReportMonth,
}

var reportYearCmd = &cobra.Command{
	Use:   "year",
	Short: "Summarize a whole year month by month",
	Run:   runReportYear,
}

func init() {
	today := now()
	reportCmd.PersistentFlags().IntVar(&reportYear, "year", today.Year(), "year to report")
	reportCmd.PersistentFlags().BoolVar(&reportJSON, "json", false, "print JSON instead of tables")
	reportMonthCmd.Flags().IntVar(&reportMonth, "month", int(today.Month()), "month to report (1-12)")

	reportCmd.AddCommand(reportMonthCmd)
	reportCmd.AddCommand(reportYearCmd)
}

func runReportMonth(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	result, err := openBackend(ctx, false)
	exitOnError(err, "failed to open ledger")
	defer result.Cleanup()

	summary, err := result.Aggregator.MonthSummary(ctx, reportYear, time.Month(reportMonth))
	exitOnError(err, "failed to build month summary")

	if reportJSON {
		printJSON(summary)
		return
	}
	renderMonth(cmd.OutOrStdout(), summary)
}

func runReportYear(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	result, err := openBackend(ctx, false)
	exitOnError(err, "failed to open ledger")
	defer result.Cleanup()

	summary, err := result.Aggregator.YearSummary(ctx, reportYear)
	exitOnError(err, "failed to build year summary")

	if reportJSON {
		printJSON(summary)
		return
	}
	renderYear(cmd.OutOrStdout(), summary)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	exitOnError(enc.Encode(v), "failed to encode JSON")
}
