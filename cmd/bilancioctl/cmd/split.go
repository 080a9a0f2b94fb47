package cmd

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"bilancio/internal/core"
	"bilancio/internal/installment"
	"bilancio/internal/services"
)

var (
	splitTotal       string
	splitCount       string
	splitFirst       string
	splitSave        bool
	splitDescription string
	splitCategory    string
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split a purchase into monthly installments",
	Long: `Preview how a total is split into monthly installments. Leftover
cents go to the first installments, one each. With --save the plan is
stored in the ledger as one installment group.

Example:
  bilancioctl split --total 100 --count 3 --first 2025-01-31
  bilancioctl split --total 899,90 --count 10 --first 2025-02-15 --save --description "Divano"`,
	Run: runSplit,
}

func init() {
	splitCmd.Flags().StringVar(&splitTotal, "total", "", "total amount, dot or comma separated")
	splitCmd.Flags().StringVar(&splitCount, "count", "", "number of installments")
	splitCmd.Flags().StringVar(&splitFirst, "first", "", "date of the first installment (YYYY-MM-DD)")
	splitCmd.Flags().BoolVar(&splitSave, "save", false, "store the plan in the ledger")
	splitCmd.Flags().StringVar(&splitDescription, "description", "", "description of the purchase (with --save)")
	splitCmd.Flags().StringVar(&splitCategory, "category", "", "category id (with --save)")
	_ = splitCmd.MarkFlagRequired("total")
	_ = splitCmd.MarkFlagRequired("count")
}

func runSplit(cmd *cobra.Command, args []string) {
	total, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(splitTotal), ",", "."))
	if err != nil {
		exitOnError(core.NewValidationError("total", "must be a decimal number"), "invalid total")
	}

	count, err := installment.ParseCount(splitCount)
	exitOnError(err, "invalid count")

	first := core.DateOf(now())
	if splitFirst != "" {
		first, err = core.ParseDate(splitFirst)
		exitOnError(err, "invalid first date")
	}

	shares, err := installment.Split(total, count, first.Time)
	exitOnError(err, "invalid installment plan")
	renderShares(cmd.OutOrStdout(), shares)

	if !splitSave {
		return
	}

	ctx := cmd.Context()
	result, err := openBackend(ctx, false)
	exitOnError(err, "failed to open ledger")
	defer result.Cleanup()

	group, _, err := result.Services.Installments.CreateGroup(ctx, services.InstallmentRequest{
		Description: splitDescription,
		Total:       total,
		Count:       count,
		FirstDate:   first,
		CategoryID:  splitCategory,
	})
	exitOnError(err, "failed to store installments")
	fmt.Fprintf(cmd.OutOrStdout(), "Stored installment group %s\n", group.ID)
}
