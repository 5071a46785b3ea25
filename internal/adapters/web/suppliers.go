package web

import (
	"net/http"
)

func (h *Handler) rankSuppliers(w http.ResponseWriter, r *http.Request) {
	materialID := r.URL.Query().Get("material_id")
	if materialID == "" {
		writeError(w, r, "material_id query parameter is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	quantity := r.URL.Query().Get("quantity")
	if quantity == "" {
		quantity = "0"
	}

	result, err := h.svc.RankSuppliers(r.Context(), materialID, quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}
