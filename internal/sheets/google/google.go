// Package google writes month summaries into a Google Sheets spreadsheet,
// one "<year> <base>" sheet per year with a row per month.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetBase is the sheet name used when none is configured.
const DefaultSheetBase = "Riepilogo"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// base name without year (e.g. "Riepilogo"); the year is prefixed per write
	sheetBase string
}

// New creates a Sheets client authenticated with service account credentials
// taken from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetBase string) (*Client, error) {
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, sheetBase)
}

// NewWithService wraps an existing service, e.g. one pointed at a test endpoint.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetBase string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetBase = strings.TrimSpace(sheetBase)
	if sheetBase == "" {
		sheetBase = DefaultSheetBase
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: sheetBase}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteMonthSummary overwrites the month's row (row month+1, below the
// header) of the year sheet. Writing the same summary twice is harmless.
func (c *Client) WriteMonthSummary(ctx context.Context, s core.MonthSummary) error {
	if s.Month < time.January || s.Month > time.December {
		return core.ErrInvalidMonth
	}
	sheet := c.SheetName(s.Year)
	data := []*gsheet.ValueRange{
		headerRange(sheet),
		monthRange(sheet, s),
	}
	if err := c.batchUpdate(ctx, data); err != nil {
		return fmt.Errorf("write %s %d to %s: %w", s.Month, s.Year, sheet, err)
	}

	slog.InfoContext(ctx, "Month summary written to Google Sheets",
		"sheet", sheet,
		"month", int(s.Month),
		"balance_cents", s.Balance().Cents)
	return nil
}

// WriteYearSummary rewrites the header, the twelve month rows and a totals row.
func (c *Client) WriteYearSummary(ctx context.Context, y core.YearSummary) error {
	sheet := c.SheetName(y.Year)
	data := make([]*gsheet.ValueRange, 0, len(y.Months)+2)
	data = append(data, headerRange(sheet))
	for _, m := range y.Months {
		data = append(data, monthRange(sheet, m))
	}
	data = append(data, &gsheet.ValueRange{
		Range:  fmt.Sprintf("%s!A14:H14", sheet),
		Values: [][]any{sheets.TotalsRow(y)},
	})

	if err := c.batchUpdate(ctx, data); err != nil {
		return fmt.Errorf("write year %d to %s: %w", y.Year, sheet, err)
	}
	slog.InfoContext(ctx, "Year summary written to Google Sheets", "sheet", sheet, "months", len(y.Months))
	return nil
}

func (c *Client) batchUpdate(ctx context.Context, data []*gsheet.ValueRange) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	req := &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}
	_, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	return err
}

// SheetName returns the sheet holding year.
func (c *Client) SheetName(year int) string {
	return yearPrefixedName(c.sheetBase, year)
}

func headerRange(sheet string) *gsheet.ValueRange {
	return &gsheet.ValueRange{
		Range:  fmt.Sprintf("%s!A1:H1", sheet),
		Values: [][]any{sheets.Header},
	}
}

func monthRange(sheet string, s core.MonthSummary) *gsheet.ValueRange {
	row := int(s.Month) + 1
	return &gsheet.ValueRange{
		Range:  fmt.Sprintf("%s!A%d:H%d", sheet, row, row),
		Values: [][]any{sheets.MonthRow(s)},
	}
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
