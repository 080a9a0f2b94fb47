package http

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/installment"
	"bilancio/internal/services"
)

// Amount is a decimal amount sent either as a JSON string ("12,50") or as a
// JSON number (12.5).
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	s, err := stringOrNumber(b)
	if err != nil {
		return err
	}
	*a = Amount(s)
	return nil
}

// Count is a whole number sent either as a JSON string or as a JSON number.
// Fractions are kept verbatim and rejected by Int.
type Count string

func (c *Count) UnmarshalJSON(b []byte) error {
	s, err := stringOrNumber(b)
	if err != nil {
		return err
	}
	*c = Count(s)
	return nil
}

// Int parses the count as an installment count.
func (c Count) Int() (int, error) {
	return installment.ParseCount(string(c))
}

func stringOrNumber(b []byte) (string, error) {
	if len(b) > 0 && b[0] == '"' {
		var s string
		err := json.Unmarshal(b, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// Money parses a strictly positive amount.
func (a Amount) Money() (core.Money, error) {
	cents, err := core.ParseDecimalToCents(string(a))
	if err != nil {
		return core.Money{}, err
	}
	return core.Cents(cents), nil
}

// NonNegativeMoney parses an amount that may be zero.
func (a Amount) NonNegativeMoney() (core.Money, error) {
	cents, err := core.ParseNonNegativeCents(string(a))
	if err != nil {
		return core.Money{}, err
	}
	return core.Cents(cents), nil
}

// Decimal returns the exact decimal value, for totals that are split later.
func (a Amount) Decimal(field string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(string(a)), ",", ".")
	if s == "" {
		return decimal.Decimal{}, core.NewValidationError(field, "must be set")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, core.NewValidationError(field, "must be a decimal number")
	}
	return d, nil
}

type categoryRequest struct {
	Name string    `json:"name"`
	Kind core.Kind `json:"kind"`
}

type categoryResponse struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Kind core.Kind `json:"kind"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Kind: c.Kind}
}

type ruleRequest struct {
	Description string    `json:"description"`
	Amount      Amount    `json:"amount"`
	DayOfMonth  int       `json:"day_of_month"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Kind        core.Kind `json:"kind"`
	CategoryID  string    `json:"category_id"`
}

func (req ruleRequest) toRule() (core.RecurringRule, error) {
	amount, err := req.Amount.Money()
	if err != nil {
		return core.RecurringRule{}, err
	}
	start, err := parseDateField("start_date", req.StartDate, false)
	if err != nil {
		return core.RecurringRule{}, err
	}
	end, err := parseDateField("end_date", req.EndDate, true)
	if err != nil {
		return core.RecurringRule{}, err
	}
	return core.RecurringRule{
		Description:   sanitizeInput(req.Description),
		DefaultAmount: amount,
		DayOfMonth:    req.DayOfMonth,
		StartDate:     start,
		EndDate:       end,
		Kind:          req.Kind,
		CategoryID:    strings.TrimSpace(req.CategoryID),
	}, nil
}

type ruleResponse struct {
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	Amount        string         `json:"amount"`
	AmountCents   int64          `json:"amount_cents"`
	DayOfMonth    int            `json:"day_of_month"`
	StartDate     string         `json:"start_date"`
	EndDate       string         `json:"end_date,omitempty"`
	Kind          core.Kind      `json:"kind"`
	CategoryID    string         `json:"category_id,omitempty"`
	State         core.RuleState `json:"state"`
	ArchivedSince string         `json:"archived_since,omitempty"`
}

func toRuleResponse(r core.RecurringRule) ruleResponse {
	state := r.Lifecycle.State
	if state == "" {
		state = core.RuleActive
	}
	resp := ruleResponse{
		ID:          r.ID,
		Description: r.Description,
		Amount:      r.DefaultAmount.String(),
		AmountCents: r.DefaultAmount.Cents,
		DayOfMonth:  r.DayOfMonth,
		StartDate:   r.StartDate.String(),
		EndDate:     r.EndDate.String(),
		Kind:        r.Kind,
		CategoryID:  r.CategoryID,
		State:       state,
	}
	if r.Lifecycle.IsArchived() {
		resp.ArchivedSince = r.Lifecycle.Since.String()
	}
	return resp
}

type overrideRequest struct {
	Amount Amount `json:"amount"`
}

type overrideResponse struct {
	RuleID      string `json:"rule_id"`
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	// Overridden is false when the month follows the rule default.
	Overridden bool `json:"overridden"`
}

func toOverrideResponse(ruleID string, p MonthParams, res services.OverrideResult) overrideResponse {
	return overrideResponse{
		RuleID:      ruleID,
		Year:        p.Year,
		Month:       int(p.Month),
		Amount:      res.Amount.String(),
		AmountCents: res.Amount.Cents,
		Overridden:  res.Override != nil,
	}
}

type transactionRequest struct {
	Kind        core.Kind `json:"kind"`
	Description string    `json:"description"`
	Amount      Amount    `json:"amount"`
	Date        string    `json:"date"`
	CategoryID  string    `json:"category_id"`
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	amount, err := req.Amount.Money()
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDateField("date", req.Date, false)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Kind:        req.Kind,
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Date:        date,
		CategoryID:  strings.TrimSpace(req.CategoryID),
	}, nil
}

type transactionResponse struct {
	ID          string    `json:"id"`
	Kind        core.Kind `json:"kind"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	AmountCents int64     `json:"amount_cents"`
	Date        string    `json:"date"`
	CategoryID  string    `json:"category_id,omitempty"`
	GroupID     string    `json:"group_id,omitempty"`
	Sequence    int       `json:"sequence,omitempty"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Kind:        t.Kind,
		Description: t.Description,
		Amount:      t.Amount.String(),
		AmountCents: t.Amount.Cents,
		Date:        t.Date.String(),
		CategoryID:  t.CategoryID,
		GroupID:     t.GroupID,
		Sequence:    t.Sequence,
	}
}

func toTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

type installmentRequest struct {
	Description  string `json:"description"`
	Total        Amount `json:"total"`
	Installments Count  `json:"installments"`
	FirstDate    string `json:"first_date"`
	CategoryID   string `json:"category_id"`
}

func (req installmentRequest) toServiceRequest() (services.InstallmentRequest, error) {
	total, err := req.Total.Decimal("total")
	if err != nil {
		return services.InstallmentRequest{}, err
	}
	count, err := req.Installments.Int()
	if err != nil {
		return services.InstallmentRequest{}, err
	}
	first, err := parseDateField("first_date", req.FirstDate, false)
	if err != nil {
		return services.InstallmentRequest{}, err
	}
	return services.InstallmentRequest{
		Description: sanitizeInput(req.Description),
		Total:       total,
		Count:       count,
		FirstDate:   first,
		CategoryID:  strings.TrimSpace(req.CategoryID),
	}, nil
}

type installmentGroupResponse struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	Total        string `json:"total"`
	TotalCents   int64  `json:"total_cents"`
	Installments int    `json:"installments"`
	FirstDate    string `json:"first_date"`
	CategoryID   string `json:"category_id,omitempty"`
}

type installmentResponse struct {
	Group        installmentGroupResponse `json:"group"`
	Transactions []transactionResponse    `json:"transactions"`
}

func toInstallmentResponse(g core.InstallmentGroup, txs []core.Transaction) installmentResponse {
	return installmentResponse{
		Group: installmentGroupResponse{
			ID:           g.ID,
			Description:  g.Description,
			Total:        g.TotalAmount.String(),
			TotalCents:   g.TotalAmount.Cents,
			Installments: g.TotalInstallments,
			FirstDate:    g.FirstDate.String(),
			CategoryID:   g.CategoryID,
		},
		Transactions: toTransactionResponses(txs),
	}
}

type occurrenceResponse struct {
	RuleID      string    `json:"rule_id"`
	Description string    `json:"description"`
	Kind        core.Kind `json:"kind"`
	CategoryID  string    `json:"category_id,omitempty"`
	Date        string    `json:"date"`
	Amount      string    `json:"amount"`
	Overridden  bool      `json:"overridden"`
}

type categoryAmountResponse struct {
	CategoryID string    `json:"category_id,omitempty"`
	Name       string    `json:"name"`
	Kind       core.Kind `json:"kind"`
	Amount     string    `json:"amount"`
}

type monthSummaryResponse struct {
	Year            int                      `json:"year"`
	Month           int                      `json:"month"`
	FixedIncome     string                   `json:"fixed_income"`
	FixedExpense    string                   `json:"fixed_expense"`
	VariableIncome  string                   `json:"variable_income"`
	VariableExpense string                   `json:"variable_expense"`
	Income          string                   `json:"income"`
	Expense         string                   `json:"expense"`
	Balance         string                   `json:"balance"`
	Recurring       []occurrenceResponse     `json:"recurring"`
	ByCategory      []categoryAmountResponse `json:"by_category"`
}

func toMonthSummaryResponse(s core.MonthSummary) monthSummaryResponse {
	resp := monthSummaryResponse{
		Year:            s.Year,
		Month:           int(s.Month),
		FixedIncome:     s.FixedIncome.String(),
		FixedExpense:    s.FixedExpense.String(),
		VariableIncome:  s.VariableIncome.String(),
		VariableExpense: s.VariableExpense.String(),
		Income:          s.Income().String(),
		Expense:         s.Expense().String(),
		Balance:         s.Balance().String(),
		Recurring:       make([]occurrenceResponse, 0, len(s.Recurring)),
		ByCategory:      make([]categoryAmountResponse, 0, len(s.ByCategory)),
	}
	for _, o := range s.Recurring {
		resp.Recurring = append(resp.Recurring, occurrenceResponse{
			RuleID:      o.RuleID,
			Description: o.Description,
			Kind:        o.Kind,
			CategoryID:  o.CategoryID,
			Date:        o.Date.String(),
			Amount:      o.Amount.String(),
			Overridden:  o.Overridden,
		})
	}
	for _, c := range s.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryAmountResponse{
			CategoryID: c.CategoryID,
			Name:       c.Name,
			Kind:       c.Kind,
			Amount:     c.Amount.String(),
		})
	}
	return resp
}

type yearSummaryResponse struct {
	Year    int                    `json:"year"`
	Income  string                 `json:"income"`
	Expense string                 `json:"expense"`
	Balance string                 `json:"balance"`
	Months  []monthSummaryResponse `json:"months"`
}

func toYearSummaryResponse(y core.YearSummary) yearSummaryResponse {
	resp := yearSummaryResponse{
		Year:    y.Year,
		Income:  y.Income().String(),
		Expense: y.Expense().String(),
		Balance: y.Balance().String(),
		Months:  make([]monthSummaryResponse, 0, len(y.Months)),
	}
	for _, m := range y.Months {
		resp.Months = append(resp.Months, toMonthSummaryResponse(m))
	}
	return resp
}

type calendarEntryResponse struct {
	Date        string           `json:"date"`
	Kind        core.Kind        `json:"kind"`
	Source      core.EntrySource `json:"source"`
	RefID       string           `json:"ref_id"`
	Description string           `json:"description"`
	Amount      string           `json:"amount"`
	CategoryID  string           `json:"category_id,omitempty"`
}

type calendarResponse struct {
	Year    int                     `json:"year"`
	Month   int                     `json:"month"`
	Entries []calendarEntryResponse `json:"entries"`
}

func toCalendarResponse(p MonthParams, entries []core.CalendarEntry) calendarResponse {
	resp := calendarResponse{
		Year:    p.Year,
		Month:   int(p.Month),
		Entries: make([]calendarEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, calendarEntryResponse{
			Date:        e.Date.String(),
			Kind:        e.Kind,
			Source:      e.Source,
			RefID:       e.RefID,
			Description: e.Description,
			Amount:      e.Amount.String(),
			CategoryID:  e.CategoryID,
		})
	}
	return resp
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime,omitempty"`
}

func newHealthResponse(status string, now time.Time, uptime time.Duration) healthResponse {
	resp := healthResponse{Status: status, Timestamp: now.UTC().Format(time.RFC3339)}
	if uptime > 0 {
		resp.Uptime = uptime.Round(time.Second).String()
	}
	return resp
}
