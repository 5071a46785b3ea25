package web

import (
	"net/http"
)

func (h *Handler) listPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListPurchaseOrders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) approvePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	po, err := h.svc.ApprovePurchaseOrder(r.Context(), pathID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, po)
}

func (h *Handler) rejectPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	po, err := h.svc.RejectPurchaseOrder(r.Context(), pathID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, po)
}
