package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bilancio/internal/cache"
	"bilancio/internal/core"
	applog "bilancio/internal/log"
	"bilancio/internal/report"
	"bilancio/internal/services"
	"bilancio/internal/storage/memory"
)

var testNow = time.Date(2025, time.April, 15, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	store := memory.New()
	summaries := cache.NewLRUCache[core.MonthSummary](32, time.Minute)
	agg := report.NewAggregator(store, summaries)
	svc := services.New(store, nil, agg)

	logger := applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard})
	opts.Now = func() time.Time { return testNow }
	opts.Summaries = summaries

	s := NewServer(":0", svc, agg, logger, opts)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, want, rec.Body.String())
	}
}

func TestHealthAndMiddleware(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := do(t, s, http.MethodGet, "/healthz", "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[healthResponse](t, rec); got.Status != "ok" {
		t.Errorf("status = %q, want ok", got.Status)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers not applied")
	}

	expectStatus(t, do(t, s, http.MethodGet, "/readyz", ""), http.StatusOK)

	metrics := do(t, s, http.MethodGet, "/metrics", "")
	expectStatus(t, metrics, http.StatusOK)
	for _, name := range []string{"http_requests_total", "rate_limit_hits_total", "summary_cache_entries"} {
		if !strings.Contains(metrics.Body.String(), name) {
			t.Errorf("metrics missing %s", name)
		}
	}
}

func TestRuleLifecycle(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := do(t, s, http.MethodPost, "/api/rules", `{
		"description": "Affitto",
		"amount": "650,00",
		"day_of_month": 5,
		"start_date": "2025-01-01",
		"kind": "expense"
	}`)
	expectStatus(t, rec, http.StatusCreated)
	rule := decode[ruleResponse](t, rec)
	if rule.ID == "" || rule.AmountCents != 65000 || rule.State != core.RuleActive {
		t.Fatalf("unexpected rule %+v", rule)
	}
	if rec.Header().Get("Location") != "/api/rules/"+rule.ID {
		t.Errorf("Location = %q", rec.Header().Get("Location"))
	}

	month := decode[monthSummaryResponse](t, do(t, s, http.MethodGet, "/api/reports/month?year=2025&month=2", ""))
	if month.FixedExpense != "650.00" || month.Balance != "-650.00" {
		t.Fatalf("february summary = %+v", month)
	}

	// zero is a real override
	rec = do(t, s, http.MethodPut, "/api/rules/"+rule.ID+"/months/2025/2", `{"amount": 0}`)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[overrideResponse](t, rec); !got.Overridden || got.AmountCents != 0 {
		t.Fatalf("override = %+v", got)
	}
	month = decode[monthSummaryResponse](t, do(t, s, http.MethodGet, "/api/reports/month?year=2025&month=2", ""))
	if month.FixedExpense != "0.00" {
		t.Errorf("fixed expense after override = %s, want 0.00", month.FixedExpense)
	}

	// the default amount clears the override
	rec = do(t, s, http.MethodPut, "/api/rules/"+rule.ID+"/months/2025/2", `{"amount": "650"}`)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[overrideResponse](t, rec); got.Overridden || got.Amount != "650.00" {
		t.Fatalf("override = %+v", got)
	}

	rec = do(t, s, http.MethodPost, "/api/rules/"+rule.ID+"/archive", "")
	expectStatus(t, rec, http.StatusOK)
	archived := decode[ruleResponse](t, rec)
	if archived.State != core.RuleArchived || archived.ArchivedSince != "2025-04-15" {
		t.Fatalf("archived rule = %+v", archived)
	}

	may := decode[monthSummaryResponse](t, do(t, s, http.MethodGet, "/api/reports/month?year=2025&month=5", ""))
	if may.FixedExpense != "0.00" {
		t.Errorf("archived rule still counted in May: %s", may.FixedExpense)
	}
	march := decode[monthSummaryResponse](t, do(t, s, http.MethodGet, "/api/reports/month?year=2025&month=3", ""))
	if march.FixedExpense != "650.00" {
		t.Errorf("archiving rewrote history: March = %s", march.FixedExpense)
	}

	active := decode[[]ruleResponse](t, do(t, s, http.MethodGet, "/api/rules?state=active", ""))
	if len(active) != 0 {
		t.Errorf("active rules = %d, want 0", len(active))
	}
	all := decode[[]ruleResponse](t, do(t, s, http.MethodGet, "/api/rules", ""))
	if len(all) != 1 {
		t.Errorf("rules = %d, want 1", len(all))
	}
}

func TestUpdateRule(t *testing.T) {
	s := newTestServer(t, Options{})
	rule := decode[ruleResponse](t, do(t, s, http.MethodPost, "/api/rules",
		`{"description":"Stipendio","amount":1800,"day_of_month":27,"start_date":"2025-01-01","kind":"income"}`))

	rec := do(t, s, http.MethodPut, "/api/rules/"+rule.ID,
		`{"description":"Stipendio","amount":"1900.50","day_of_month":27,"start_date":"2025-01-01","kind":"income"}`)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[ruleResponse](t, rec); got.AmountCents != 190050 {
		t.Errorf("amount = %d, want 190050", got.AmountCents)
	}

	expectStatus(t, do(t, s, http.MethodPut, "/api/rules/missing",
		`{"description":"x","amount":"1","day_of_month":1,"start_date":"2025-01-01","kind":"income"}`), http.StatusNotFound)

	rec = do(t, s, http.MethodPut, "/api/rules/"+rule.ID,
		`{"description":"Stipendio","amount":"1900.50","day_of_month":27,"start_date":"2025-01-01","kind":"expense"}`)
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	if got := decode[errorBody](t, rec); got.Field != "kind" {
		t.Errorf("field = %q, want kind", got.Field)
	}
}

func TestRequestErrors(t *testing.T) {
	s := newTestServer(t, Options{})
	validRule := `{"description":"Affitto","amount":"650","day_of_month":5,"start_date":"2025-01-01","kind":"expense"}`
	rule := decode[ruleResponse](t, do(t, s, http.MethodPost, "/api/rules", validRule))

	tests := []struct {
		name      string
		method    string
		path      string
		body      string
		wantCode  int
		wantField string
	}{
		{"malformed json", http.MethodPost, "/api/rules", `{"description":`, http.StatusBadRequest, ""},
		{"unknown field", http.MethodPost, "/api/rules", `{"descr":"x"}`, http.StatusBadRequest, ""},
		{"empty body", http.MethodPost, "/api/transactions", "", http.StatusBadRequest, ""},
		{"negative amount", http.MethodPost, "/api/rules",
			`{"description":"x","amount":"-5","day_of_month":5,"start_date":"2025-01-01","kind":"expense"}`,
			http.StatusUnprocessableEntity, "amount"},
		{"day out of range", http.MethodPost, "/api/rules",
			`{"description":"x","amount":"5","day_of_month":32,"start_date":"2025-01-01","kind":"expense"}`,
			http.StatusUnprocessableEntity, "day_of_month"},
		{"bad date", http.MethodPost, "/api/transactions",
			`{"kind":"expense","description":"x","amount":"5","date":"01/02/2025"}`,
			http.StatusUnprocessableEntity, "date"},
		{"unknown category", http.MethodPost, "/api/transactions",
			`{"kind":"expense","description":"x","amount":"5","date":"2025-02-01","category_id":"nope"}`,
			http.StatusUnprocessableEntity, "category_id"},
		{"unknown installment category", http.MethodPost, "/api/installments",
			`{"description":"x","total":"100","installments":2,"first_date":"2025-02-01","category_id":"nope"}`,
			http.StatusUnprocessableEntity, "category_id"},
		{"month 13", http.MethodPut, "/api/rules/" + rule.ID + "/months/2025/13", `{"amount":"1"}`,
			http.StatusUnprocessableEntity, "month"},
		{"month 0 in query", http.MethodGet, "/api/reports/month?year=2025&month=0", "",
			http.StatusUnprocessableEntity, "month"},
		{"bad year", http.MethodGet, "/api/reports/year?year=abc", "",
			http.StatusUnprocessableEntity, "year"},
		{"negative override", http.MethodPut, "/api/rules/" + rule.ID + "/months/2025/3", `{"amount":-1}`,
			http.StatusUnprocessableEntity, "amount"},
		{"unknown rule", http.MethodGet, "/api/rules/missing", "", http.StatusNotFound, ""},
		{"unknown rule override", http.MethodPut, "/api/rules/missing/months/2025/3", `{"amount":"1"}`,
			http.StatusNotFound, ""},
		{"wrong method", http.MethodDelete, "/api/rules", "", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			expectStatus(t, rec, tt.wantCode)
			if tt.wantField != "" {
				if got := decode[errorBody](t, rec); got.Field != tt.wantField {
					t.Errorf("field = %q, want %q", got.Field, tt.wantField)
				}
			}
		})
	}
}

func TestTransactions(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := do(t, s, http.MethodPost, "/api/transactions",
		`{"kind":"expense","description":"Spesa","amount":"42,10","date":"2025-04-03"}`)
	expectStatus(t, rec, http.StatusCreated)
	tx := decode[transactionResponse](t, rec)
	if tx.AmountCents != 4210 || tx.Date != "2025-04-03" {
		t.Fatalf("transaction = %+v", tx)
	}

	// month defaults to the current one
	list := decode[[]transactionResponse](t, do(t, s, http.MethodGet, "/api/transactions", ""))
	if len(list) != 1 || list[0].ID != tx.ID {
		t.Fatalf("list = %+v", list)
	}
	if other := decode[[]transactionResponse](t, do(t, s, http.MethodGet, "/api/transactions?year=2025&month=5", "")); len(other) != 0 {
		t.Errorf("May transactions = %d, want 0", len(other))
	}

	summary := decode[monthSummaryResponse](t, do(t, s, http.MethodGet, "/api/reports/month", ""))
	if summary.VariableExpense != "42.10" {
		t.Errorf("variable expense = %s, want 42.10", summary.VariableExpense)
	}

	expectStatus(t, do(t, s, http.MethodDelete, "/api/transactions/"+tx.ID, ""), http.StatusNoContent)
	expectStatus(t, do(t, s, http.MethodDelete, "/api/transactions/"+tx.ID, ""), http.StatusNotFound)
}

func TestInstallments(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := do(t, s, http.MethodPost, "/api/installments",
		`{"description":"Divano","total":"100","installments":3,"first_date":"2025-01-15"}`)
	expectStatus(t, rec, http.StatusCreated)
	created := decode[installmentResponse](t, rec)
	if len(created.Transactions) != 3 || created.Group.TotalCents != 10000 {
		t.Fatalf("installments = %+v", created)
	}
	var sum int64
	for i, tx := range created.Transactions {
		sum += tx.AmountCents
		if tx.GroupID != created.Group.ID || tx.Sequence != i+1 {
			t.Errorf("installment %d = %+v", i, tx)
		}
	}
	if sum != 10000 {
		t.Errorf("installments sum to %d, want 10000", sum)
	}

	// deleting one installment removes the whole plan
	expectStatus(t, do(t, s, http.MethodDelete, "/api/transactions/"+created.Transactions[1].ID, ""), http.StatusNoContent)
	for _, m := range []string{"1", "2", "3"} {
		list := decode[[]transactionResponse](t, do(t, s, http.MethodGet, "/api/transactions?year=2025&month="+m, ""))
		if len(list) != 0 {
			t.Errorf("month %s still has %d installments", m, len(list))
		}
	}
	expectStatus(t, do(t, s, http.MethodDelete, "/api/installments/"+created.Group.ID, ""), http.StatusNotFound)

	for _, count := range []string{`1`, `2.5`, `"tre"`, `"2,5"`} {
		rec = do(t, s, http.MethodPost, "/api/installments",
			`{"description":"Divano","total":"100","installments":`+count+`,"first_date":"2025-01-15"}`)
		expectStatus(t, rec, http.StatusUnprocessableEntity)
		if got := decode[errorBody](t, rec); got.Field != "installments" {
			t.Errorf("installments %s: field = %q, want installments", count, got.Field)
		}
	}

	rec = do(t, s, http.MethodPost, "/api/installments",
		`{"description":"Lavatrice","total":"500","installments":"4","first_date":"2025-02-01"}`)
	expectStatus(t, rec, http.StatusCreated)
}

func TestYearReportAndCalendar(t *testing.T) {
	s := newTestServer(t, Options{})
	do(t, s, http.MethodPost, "/api/rules",
		`{"description":"Stipendio","amount":"2000","day_of_month":27,"start_date":"2025-01-01","kind":"income"}`)
	do(t, s, http.MethodPost, "/api/transactions",
		`{"kind":"expense","description":"Cena","amount":"30","date":"2025-04-10"}`)

	rec := do(t, s, http.MethodGet, "/api/reports/year?year=2025", "")
	expectStatus(t, rec, http.StatusOK)
	year := decode[yearSummaryResponse](t, rec)
	if len(year.Months) != 12 || year.Months[0].Month != 1 || year.Months[11].Month != 12 {
		t.Fatalf("year months = %d", len(year.Months))
	}
	if year.Income != "24000.00" || year.Expense != "30.00" || year.Balance != "23970.00" {
		t.Errorf("year totals = %s/%s/%s", year.Income, year.Expense, year.Balance)
	}

	cal := decode[calendarResponse](t, do(t, s, http.MethodGet, "/api/reports/calendar?year=2025&month=4", ""))
	if len(cal.Entries) != 2 {
		t.Fatalf("calendar entries = %+v", cal.Entries)
	}
	if cal.Entries[0].Date != "2025-04-10" || cal.Entries[1].Date != "2025-04-27" {
		t.Errorf("calendar not in date order: %+v", cal.Entries)
	}
}

func TestCategories(t *testing.T) {
	s := newTestServer(t, Options{})

	expectStatus(t, do(t, s, http.MethodPost, "/api/categories", `{"name":"Casa","kind":"expense"}`), http.StatusCreated)
	expectStatus(t, do(t, s, http.MethodPost, "/api/categories", `{"name":"casa","kind":"expense"}`), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, s, http.MethodPost, "/api/categories", `{"name":"Casa","kind":"gift"}`), http.StatusUnprocessableEntity)

	cats := decode[[]categoryResponse](t, do(t, s, http.MethodGet, "/api/categories", ""))
	if len(cats) != 1 || cats[0].Name != "Casa" {
		t.Errorf("categories = %+v", cats)
	}
}

func TestRateLimitAppliesToWrites(t *testing.T) {
	s := newTestServer(t, Options{RequestsPerMinute: 2})
	body := `{"kind":"income","description":"Regalo","amount":"10","date":"2025-04-01"}`

	expectStatus(t, do(t, s, http.MethodPost, "/api/transactions", body), http.StatusCreated)
	expectStatus(t, do(t, s, http.MethodPost, "/api/transactions", body), http.StatusCreated)
	rec := do(t, s, http.MethodPost, "/api/transactions", body)
	expectStatus(t, rec, http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header not set")
	}

	expectStatus(t, do(t, s, http.MethodGet, "/api/transactions", ""), http.StatusOK)
}

func TestSuspiciousRequestRejected(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := do(t, s, http.MethodGet, "/api/reports/month?year=2025%20union%20select", "")
	expectStatus(t, rec, http.StatusBadRequest)
	if s.detector.SuspiciousRequests() != 1 {
		t.Errorf("suspicious requests = %d, want 1", s.detector.SuspiciousRequests())
	}
}
