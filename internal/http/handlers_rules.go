package http

import (
	"net/http"

	applog "bilancio/internal/log"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Categories.List(r.Context())
	if err != nil {
		s.respondError(w, r, "Failed to list categories", err)
		return
	}
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if resp := DecodeJSON(w, r, &req); resp != nil {
		resp.Write(w)
		return
	}

	c, err := s.svc.Categories.Create(r.Context(), sanitizeInput(req.Name), req.Kind)
	if err != nil {
		s.respondError(w, r, "Failed to create category", err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", location("/api/categories", c.ID)).
		Body(toCategoryResponse(c)).
		Write(w)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.svc.Rules.List(r.Context())
	if err != nil {
		s.respondError(w, r, "Failed to list rules", err)
		return
	}

	state := r.URL.Query().Get("state")
	out := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		resp := toRuleResponse(rule)
		if state != "" && string(resp.State) != state {
			continue
		}
		out = append(out, resp)
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.svc.Rules.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, "Failed to get rule", err)
		return
	}
	NewJSONResponse().Body(toRuleResponse(rule)).Write(w)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if resp := DecodeJSON(w, r, &req); resp != nil {
		resp.Write(w)
		return
	}
	rule, err := req.toRule()
	if err != nil {
		s.respondError(w, r, "Invalid rule", err)
		return
	}

	created, err := s.svc.Rules.Create(r.Context(), rule, s.now())
	if err != nil {
		s.respondError(w, r, "Failed to create rule", err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", location("/api/rules", created.ID)).
		Body(toRuleResponse(created)).
		Write(w)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if resp := DecodeJSON(w, r, &req); resp != nil {
		resp.Write(w)
		return
	}
	rule, err := req.toRule()
	if err != nil {
		s.respondError(w, r, "Invalid rule", err)
		return
	}
	rule.ID = r.PathValue("id")

	updated, err := s.svc.Rules.Update(r.Context(), rule, s.now())
	if err != nil {
		s.respondError(w, r, "Failed to update rule", err)
		return
	}
	NewJSONResponse().Body(toRuleResponse(updated)).Write(w)
}

func (s *Server) handleArchiveRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.svc.Rules.Archive(r.Context(), r.PathValue("id"), s.now())
	if err != nil {
		s.respondError(w, r, "Failed to archive rule", err)
		return
	}
	NewJSONResponse().Body(toRuleResponse(rule)).Write(w)
}

// handleSetMonthAmount sets a rule's amount for one month. Sending the rule
// default clears the override.
func (s *Server) handleSetMonthAmount(w http.ResponseWriter, r *http.Request) {
	period, err := PathMonth(r)
	if err != nil {
		s.respondError(w, r, "Invalid month", err)
		return
	}
	var req overrideRequest
	if resp := DecodeJSON(w, r, &req); resp != nil {
		resp.Write(w)
		return
	}
	amount, err := req.Amount.NonNegativeMoney()
	if err != nil {
		s.respondError(w, r, "Invalid amount", err)
		return
	}

	ruleID := r.PathValue("id")
	res, err := s.svc.Overrides.SetMonthAmount(r.Context(), ruleID, period.Year, period.Month, amount)
	if err != nil {
		s.respondError(w, r, "Failed to set month amount", err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogLedgerChange(r.Context(), applog.OpOverride, ruleID, period.Year, period.Month)
	NewJSONResponse().Body(toOverrideResponse(ruleID, period, res)).Write(w)
}
