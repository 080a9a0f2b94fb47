package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/sheets"
)

// SummarySource is implemented by *report.Aggregator.
type SummarySource interface {
	MonthSummary(ctx context.Context, year int, month time.Month) (core.MonthSummary, error)
	YearSummary(ctx context.Context, year int) (core.YearSummary, error)
	Invalidate(year int, month time.Month)
	InvalidateAll()
}

// SyncWorker keeps the summary sheet in line with the ledger: every ledger
// event recomputes the months it touches and rewrites their rows.
type SyncWorker struct {
	summaries SummarySource
	writer    sheets.SummaryWriter
	now       func() time.Time
}

func NewSyncWorker(summaries SummarySource, writer sheets.SummaryWriter) *SyncWorker {
	return &SyncWorker{
		summaries: summaries,
		writer:    writer,
		now:       time.Now,
	}
}

// HandleLedgerEvent processes a single ledger event from AMQP. Returning an
// error makes the consumer requeue the message.
func (w *SyncWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"type", ev.Type,
		"year", ev.Year,
		"month", ev.Month,
		"ref_id", ev.RefID)

	if ev.WholeYear() {
		w.summaries.InvalidateAll()
		return w.SyncYear(ctx, ev.Year)
	}

	month := time.Month(ev.Month)
	w.summaries.Invalidate(ev.Year, month)
	return w.SyncMonth(ctx, ev.Year, month)
}

// SyncMonth recomputes one month and writes its row.
func (w *SyncWorker) SyncMonth(ctx context.Context, year int, month time.Month) error {
	s, err := w.summaries.MonthSummary(ctx, year, month)
	if err != nil {
		return fmt.Errorf("compute month summary: %w", err)
	}
	if err := w.writer.WriteMonthSummary(ctx, s); err != nil {
		return fmt.Errorf("write month summary: %w", err)
	}

	slog.InfoContext(ctx, "Successfully synced month summary",
		"year", year,
		"month", int(month),
		"income_cents", s.Income().Cents,
		"expense_cents", s.Expense().Cents)
	return nil
}

// SyncYear recomputes all twelve months of year and rewrites the sheet.
func (w *SyncWorker) SyncYear(ctx context.Context, year int) error {
	y, err := w.summaries.YearSummary(ctx, year)
	if err != nil {
		return fmt.Errorf("compute year summary: %w", err)
	}
	if err := w.writer.WriteYearSummary(ctx, y); err != nil {
		return fmt.Errorf("write year summary: %w", err)
	}

	slog.InfoContext(ctx, "Successfully synced year summary",
		"year", year,
		"balance_cents", y.Balance().Cents)
	return nil
}

// StartupSyncCheck rewrites the current year so that events missed while
// the worker was down do not leave stale rows behind.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	year := w.now().Year()
	slog.InfoContext(ctx, "Running startup summary sync", "year", year)

	w.summaries.InvalidateAll()
	if err := w.SyncYear(ctx, year); err != nil {
		return fmt.Errorf("startup sync of %d: %w", year, err)
	}
	return nil
}

// PeriodicRefresh runs StartupSyncCheck every interval until ctx is done.
// Errors are logged and retried on the next tick.
func (w *SyncWorker) PeriodicRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.StartupSyncCheck(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic summary refresh failed", "error", err)
			}
		}
	}
}
