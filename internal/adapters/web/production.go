package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Denno-Labs/Logistria/internal/app"
)

type createProductionPayload struct {
	ProductionID   string `json:"production_id"`
	OrderID        string `json:"order_id"`
	ProductID      string `json:"product_id"`
	TargetQuantity string `json:"target_quantity"`
}

func (h *Handler) createProduction(w http.ResponseWriter, r *http.Request) {
	var payload createProductionPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	qty, err := decimal.NewFromString(payload.TargetQuantity)
	if err != nil {
		writeError(w, r, "invalid target_quantity: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.CreateProduction(r.Context(), app.CreateProductionRequest{
		ProductionID:   payload.ProductionID,
		OrderID:        payload.OrderID,
		ProductID:      payload.ProductID,
		TargetQuantity: qty,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) getProduction(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetProduction(r.Context(), pathID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

type advanceStagePayload struct {
	CompletedStage    string `json:"completed_stage"`
	QuantityCompleted string `json:"quantity_completed"`
}

func (h *Handler) advanceStage(w http.ResponseWriter, r *http.Request) {
	var payload advanceStagePayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	qty, ok := parseOptionalQuantity(w, r, payload.QuantityCompleted)
	if !ok {
		return
	}

	result, err := h.svc.AdvanceStage(r.Context(), app.AdvanceStageRequest{
		ProductionID:      pathID(r),
		CompletedStage:    payload.CompletedStage,
		QuantityCompleted: qty,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

type qualityCheckPayload struct {
	Passed            bool   `json:"passed"`
	QuantityCompleted string `json:"quantity_completed"`
	Inspector         string `json:"inspector"`
	Notes             string `json:"notes"`
}

func (h *Handler) qualityCheck(w http.ResponseWriter, r *http.Request) {
	var payload qualityCheckPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	qty, ok := parseOptionalQuantity(w, r, payload.QuantityCompleted)
	if !ok {
		return
	}

	result, err := h.svc.QualityCheck(r.Context(), app.QualityCheckRequest{
		ProductionID:      pathID(r),
		Passed:            payload.Passed,
		QuantityCompleted: qty,
		Inspector:         payload.Inspector,
		Notes:             payload.Notes,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// parseOptionalQuantity parses an optional quantity field. Empty means "not
// provided" and decodes to zero; the caller decides what zero defaults to.
func parseOptionalQuantity(w http.ResponseWriter, r *http.Request, raw string) (decimal.Decimal, bool) {
	if raw == "" {
		return decimal.Decimal{}, true
	}
	qty, err := decimal.NewFromString(raw)
	if err != nil {
		writeError(w, r, "invalid quantity_completed: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return decimal.Decimal{}, false
	}
	return qty, true
}
