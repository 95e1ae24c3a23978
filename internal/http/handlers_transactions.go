package http

import (
	"net/http"

	"financeai/internal/auth"
	"financeai/internal/core"

	"github.com/go-chi/chi/v5"
)

type transactionResponse struct {
	Data core.Transaction `json:"data"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.deps.Transactions.List(r.Context(), auth.UserID(r.Context()), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	in, err := decodeTransaction(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tx, err := s.deps.Transactions.Create(r.Context(), auth.UserID(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionResponse{Data: tx})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	in, err := decodeTransaction(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tx, err := s.deps.Transactions.Update(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionResponse{Data: tx})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Transactions.Delete(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
