package http

import (
	"context"
	"net/http"

	"financeai/internal/auth"
	"financeai/internal/services"
)

type affordabilityResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    services.Affordability `json:"data"`
}

func (s *Server) handleAffordability(w http.ResponseWriter, r *http.Request) {
	var req services.AffordabilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if s.deps.AdvisorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deps.AdvisorTimeout)
		defer cancel()
	}

	result, err := s.deps.Advisor.Check(ctx, auth.UserID(r.Context()), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, affordabilityResponse{
		Success: true,
		Message: "Affordability analysis complete",
		Data:    result,
	})
}
