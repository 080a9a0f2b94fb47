package sheets

import (
	"context"

	"bilancio/internal/core"
)

// Ports for outbound summary adapters.
type (
	// SummaryWriter publishes computed summaries to an external sheet.
	// Writes are idempotent: the same summary may be written any number of times.
	SummaryWriter interface {
		WriteMonthSummary(ctx context.Context, s core.MonthSummary) error
		WriteYearSummary(ctx context.Context, y core.YearSummary) error
	}
)
