package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Denno-Labs/Logistria/internal/core"
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
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps the core error taxonomy onto HTTP statuses. Anything
// unrecognized is a 500 with the message passed through.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		duplicate    *core.DuplicateProductionError
		mismatch     *core.StageMismatchError
		terminal     *core.TerminalStageError
		notFound     *core.ProductionNotFoundError
		missingBom   *core.MissingBomError
		shortStock   *core.InsufficientStockError
		missingCfg   *core.MissingConfigError
		badPolicy    *core.UnsupportedPolicyError
		badEvent     *core.InvalidEventError
		noMaterial   *core.MaterialNotFoundError
		poState      *core.PurchaseOrderStateError
		oracleFailed *core.OracleError
	)

	switch {
	case errors.As(err, &duplicate):
		writeError(w, r, err.Error(), "DUPLICATE_PRODUCTION", http.StatusConflict)
	case errors.As(err, &mismatch):
		writeError(w, r, err.Error(), "STAGE_MISMATCH", http.StatusConflict)
	case errors.As(err, &terminal):
		writeError(w, r, err.Error(), "PRODUCTION_COMPLETED", http.StatusConflict)
	case errors.As(err, &poState):
		writeError(w, r, err.Error(), "PO_STATE_CONFLICT", http.StatusConflict)
	case errors.As(err, &notFound):
		writeError(w, r, err.Error(), "PRODUCTION_NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &noMaterial):
		writeError(w, r, err.Error(), "MATERIAL_NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &shortStock):
		writeError(w, r, err.Error(), "INSUFFICIENT_STOCK", http.StatusUnprocessableEntity)
	case errors.As(err, &missingBom):
		writeError(w, r, err.Error(), "MISSING_BOM", http.StatusUnprocessableEntity)
	case errors.As(err, &missingCfg):
		writeError(w, r, err.Error(), "MISSING_CONFIG", http.StatusUnprocessableEntity)
	case errors.As(err, &badPolicy):
		writeError(w, r, err.Error(), "UNSUPPORTED_POLICY", http.StatusUnprocessableEntity)
	case errors.As(err, &badEvent):
		writeError(w, r, err.Error(), "INVALID_EVENT", http.StatusBadRequest)
	case errors.As(err, &oracleFailed):
		writeError(w, r, err.Error(), "UPSTREAM_UNAVAILABLE", http.StatusBadGateway)
	default:
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// decodeJSON decodes the request body into v and writes an appropriate error
// response on failure. HTTP 413 when the body exceeds the configured limit,
// HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
