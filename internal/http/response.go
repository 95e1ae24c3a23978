package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"financeai/internal/auth"
	"financeai/internal/log"
	"financeai/internal/services"
	"financeai/internal/storage"
)

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// statusFor maps an error to its HTTP status and client-facing message.
// Anything unrecognised is a 500 with a generic message.
func statusFor(err error) (int, string) {
	var verr *services.ValidationError
	var rerr *requestError
	switch {
	case errors.As(err, &rerr):
		return http.StatusBadRequest, rerr.Error()
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "transaction not found"
	case errors.Is(err, storage.ErrDuplicateEmail):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid or expired token"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.LogError(r.Context(), "Request failed", err, log.ComponentHTTP, r.Method+" "+r.URL.Path, nil)
	}
	writeMessage(w, status, message)
}
