package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Denno-Labs/Logistria/internal/app"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	logger *slog.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string, logger *slog.Logger) http.Handler {
	h := &Handler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/api/health", h.health)

	// Production
	r.Post("/api/productions", h.createProduction)
	r.Get("/api/productions/{id}", h.getProduction)
	r.Post("/api/productions/{id}/advance", h.advanceStage)
	r.Post("/api/productions/{id}/quality-check", h.qualityCheck)

	// Inventory
	r.Get("/api/inventory/stock", h.stockLevels)
	r.Get("/api/inventory/finished-goods", h.finishedGoods)
	r.Post("/api/inventory/receive", h.receiveStock)

	// Suppliers
	r.Get("/api/suppliers/rank", h.rankSuppliers)

	// Procurement
	r.Get("/api/purchase-orders", h.listPurchaseOrders)
	r.Post("/api/purchase-orders/{id}/approve", h.approvePurchaseOrder)
	r.Post("/api/purchase-orders/{id}/reject", h.rejectPurchaseOrder)

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// pathID extracts the {id} URL parameter.
func pathID(r *http.Request) string {
	return chi.URLParam(r, "id")
}
