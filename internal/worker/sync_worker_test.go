package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/amqp"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/report"
	sheetsmem "bilancio/internal/sheets/memory"
	"bilancio/internal/storage/memory"
)

type failingWriter struct{}

func (failingWriter) WriteMonthSummary(context.Context, core.MonthSummary) error {
	return errors.New("sheets unavailable")
}

func (failingWriter) WriteYearSummary(context.Context, core.YearSummary) error {
	return errors.New("sheets unavailable")
}

func newWorker(t *testing.T) (*SyncWorker, *memory.Store, *sheetsmem.Writer) {
	t.Helper()
	store := memory.New()
	summaries := cache.NewLRUCache[core.MonthSummary](16, time.Hour)
	agg := report.NewAggregator(store, summaries)
	writer := sheetsmem.New()
	w := NewSyncWorker(agg, writer)
	w.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return w, store, writer
}

func TestHandleLedgerEvent_Month(t *testing.T) {
	w, store, writer := newWorker(t)
	ctx := context.Background()

	// prime the cache with an empty April
	require.NoError(t, w.SyncMonth(ctx, 2025, time.April))

	tx, err := store.CreateTransaction(ctx, core.Transaction{
		Kind:        core.KindExpense,
		Description: "Spesa",
		Amount:      core.Cents(4200),
		Date:        core.NewDate(2025, time.April, 12),
	})
	require.NoError(t, err)

	ev := amqp.NewLedgerEvent(amqp.TransactionCreated, 2025, time.April, tx.ID)
	require.NoError(t, w.HandleLedgerEvent(ctx, ev))

	row, ok := writer.Row(2025, time.April)
	require.True(t, ok)
	assert.Equal(t, int64(4200), row.VariableExpense.Cents, "event must invalidate the cached month")
	assert.Equal(t, 1, writer.Rows())
}

func TestHandleLedgerEvent_WholeYear(t *testing.T) {
	w, store, writer := newWorker(t)
	ctx := context.Background()

	_, err := store.CreateRule(ctx, core.RecurringRule{
		Description:   "Stipendio",
		DefaultAmount: core.Cents(180000),
		DayOfMonth:    27,
		StartDate:     core.NewDate(2025, time.January, 1),
		Kind:          core.KindIncome,
		Lifecycle:     core.ActiveLifecycle(),
	})
	require.NoError(t, err)

	ev := amqp.NewLedgerEvent(amqp.RuleCreated, 2025, 0, "rule")
	require.NoError(t, w.HandleLedgerEvent(ctx, ev))

	assert.Equal(t, 12, writer.Rows())
	dec, ok := writer.Row(2025, time.December)
	require.True(t, ok)
	assert.Equal(t, int64(180000), dec.FixedIncome.Cents)
}

func TestHandleLedgerEvent_WriteFailure(t *testing.T) {
	store := memory.New()
	w := NewSyncWorker(report.NewAggregator(store, nil), failingWriter{})

	err := w.HandleLedgerEvent(context.Background(), amqp.NewLedgerEvent(amqp.OverrideSet, 2025, time.May, "r"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheets unavailable")
}

func TestStartupSyncCheck(t *testing.T) {
	w, _, writer := newWorker(t)
	require.NoError(t, w.StartupSyncCheck(context.Background()))
	_, ok := writer.Row(2025, time.January)
	assert.True(t, ok)
	assert.Equal(t, 12, writer.Rows())
}

func TestPeriodicRefresh_StopsOnCancel(t *testing.T) {
	w, _, writer := newWorker(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.PeriodicRefresh(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return writer.Writes() >= 12 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PeriodicRefresh did not stop after cancel")
	}
}
