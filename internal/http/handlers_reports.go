package http

import (
	"net/http"
)

func (s *Server) handleMonthReport(w http.ResponseWriter, r *http.Request) {
	period, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		s.respondError(w, r, "Invalid month", err)
		return
	}

	summary, err := s.reports.MonthSummary(r.Context(), period.Year, period.Month)
	if err != nil {
		s.respondError(w, r, "Failed to build month summary", err)
		return
	}
	NewJSONResponse().Body(toMonthSummaryResponse(summary)).Write(w)
}

func (s *Server) handleYearReport(w http.ResponseWriter, r *http.Request) {
	year, err := ParseYearParam(r.URL.Query(), s.now())
	if err != nil {
		s.respondError(w, r, "Invalid year", err)
		return
	}

	summary, err := s.reports.YearSummary(r.Context(), year)
	if err != nil {
		s.respondError(w, r, "Failed to build year summary", err)
		return
	}
	NewJSONResponse().Body(toYearSummaryResponse(summary)).Write(w)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	period, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		s.respondError(w, r, "Invalid month", err)
		return
	}

	entries, err := s.reports.Calendar(r.Context(), period.Year, period.Month)
	if err != nil {
		s.respondError(w, r, "Failed to build calendar", err)
		return
	}
	NewJSONResponse().Body(toCalendarResponse(period, entries)).Write(w)
}
