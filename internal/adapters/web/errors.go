package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"stockbook/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	})
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeCoreError maps the typed core error taxonomy onto HTTP statuses and
// stable machine codes. Business failures keep their message (it already
// names locations and quantities); invariant violations and storage faults
// surface generically.
func (h *Handler) writeCoreError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation   *core.ValidationError
		insufficient *core.InsufficientStockError
		invariant    *core.InvariantViolationError
	)

	switch {
	case errors.As(err, &validation):
		writeError(w, r, validation.Error(), "VALIDATION", http.StatusUnprocessableEntity)
	case errors.As(err, &insufficient):
		writeError(w, r, insufficient.Error(), "INSUFFICIENT_STOCK", http.StatusUnprocessableEntity)
	case errors.Is(err, core.ErrInvalidTransfer):
		writeError(w, r, err.Error(), "INVALID_TRANSFER", http.StatusUnprocessableEntity)
	case errors.Is(err, core.ErrUnknownProduct):
		writeError(w, r, err.Error(), "UNKNOWN_PRODUCT", http.StatusNotFound)
	case errors.Is(err, core.ErrUnknownConsultant):
		writeError(w, r, err.Error(), "UNKNOWN_CONSULTANT", http.StatusNotFound)
	case errors.Is(err, core.ErrRequestNotFound):
		writeError(w, r, err.Error(), "REQUEST_NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrNotAuthorized):
		writeError(w, r, err.Error(), "NOT_AUTHORIZED", http.StatusForbidden)
	case errors.Is(err, core.ErrAlreadyProcessed):
		writeError(w, r, err.Error(), "ALREADY_PROCESSED", http.StatusConflict)
	case errors.Is(err, core.ErrConflict):
		// Safe for the caller to retry.
		writeError(w, r, err.Error(), "CONFLICT", http.StatusConflict)
	case errors.As(err, &invariant):
		h.log.Error("invariant violation", errField(err), reqField(r))
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	default:
		h.log.Error("operation failed", errField(err), reqField(r))
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
