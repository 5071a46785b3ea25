package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Denno-Labs/Logistria/internal/app"
)

func (h *Handler) stockLevels(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetStockLevels(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) finishedGoods(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetFinishedGoods(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

type receiveStockPayload struct {
	MaterialID        string `json:"material_id"`
	Quantity          string `json:"quantity"`
	WarehouseLocation string `json:"warehouse_location"`
}

func (h *Handler) receiveStock(w http.ResponseWriter, r *http.Request) {
	var payload receiveStockPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	qty, err := decimal.NewFromString(payload.Quantity)
	if err != nil {
		writeError(w, r, "invalid quantity: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	rec, err := h.svc.ReceiveStock(r.Context(), app.ReceiveStockRequest{
		MaterialID:        payload.MaterialID,
		Quantity:          qty,
		WarehouseLocation: payload.WarehouseLocation,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, rec)
}
