package http

import (
	"net/http"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	period, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		s.respondError(w, r, "Invalid month", err)
		return
	}

	txs, err := s.svc.Transactions.List(r.Context(), period.Year, period.Month)
	if err != nil {
		s.respondError(w, r, "Failed to list transactions", err)
		return
	}
	NewJSONResponse().Body(toTransactionResponses(txs)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if resp := DecodeJSON(w, r, &req); resp != nil {
		resp.Write(w)
		return
	}
	t, err := req.toTransaction()
	if err != nil {
		s.respondError(w, r, "Invalid transaction", err)
		return
	}

	created, err := s.svc.Transactions.Create(r.Context(), t)
	if err != nil {
		s.respondError(w, r, "Failed to create transaction", err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", location("/api/transactions", created.ID)).
		Body(toTransactionResponse(created)).
		Write(w)
}

// handleDeleteTransaction deletes a transaction, or the whole group when the
// transaction is an installment.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Transactions.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, "Failed to delete transaction", err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleCreateInstallments(w http.ResponseWriter, r *http.Request) {
	var req installmentRequest
	if resp := DecodeJSON(w, r, &req); resp != nil {
		resp.Write(w)
		return
	}
	sreq, err := req.toServiceRequest()
	if err != nil {
		s.respondError(w, r, "Invalid installment plan", err)
		return
	}

	group, txs, err := s.svc.Installments.CreateGroup(r.Context(), sreq)
	if err != nil {
		s.respondError(w, r, "Failed to create installments", err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", location("/api/installments", group.ID)).
		Body(toInstallmentResponse(group, txs)).
		Write(w)
}

func (s *Server) handleDeleteInstallments(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Installments.DeleteGroup(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, "Failed to delete installments", err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
