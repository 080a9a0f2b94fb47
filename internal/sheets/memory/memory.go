// Package memory keeps written summaries in process, for local runs
// without a spreadsheet and for tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bilancio/internal/core"
)

type rowKey struct {
	year  int
	month time.Month
}

type Writer struct {
	mu     sync.Mutex
	rows   map[rowKey]core.MonthSummary
	writes int
}

func New() *Writer {
	return &Writer{rows: make(map[rowKey]core.MonthSummary)}
}

// WriteMonthSummary replaces the stored row for the summary's month.
func (w *Writer) WriteMonthSummary(_ context.Context, s core.MonthSummary) error {
	if s.Month < time.January || s.Month > time.December {
		return core.ErrInvalidMonth
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows[rowKey{s.Year, s.Month}] = s
	w.writes++
	return nil
}

func (w *Writer) WriteYearSummary(ctx context.Context, y core.YearSummary) error {
	for _, m := range y.Months {
		if m.Year != y.Year {
			return fmt.Errorf("month %s belongs to %d, not %d", m.Month, m.Year, y.Year)
		}
		if err := w.WriteMonthSummary(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// Row returns the last summary written for year and month.
func (w *Writer) Row(year int, month time.Month) (core.MonthSummary, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.rows[rowKey{year, month}]
	return s, ok
}

// Rows returns the number of distinct rows written.
func (w *Writer) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.rows)
}

// Writes returns the number of month rows written, counting rewrites.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
