package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/backend"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

type OrdersBackend interface {
	List(ctx context.Context) (json.RawMessage, error)
	Details(ctx context.Context, orderID string) (json.RawMessage, error)
	Update(ctx context.Context, orderID string, upd backend.OrderUpdate) (json.RawMessage, error)
}

type AdminHandler struct{ orders OrdersBackend }

func NewAdminHandler(orders OrdersBackend) *AdminHandler { return &AdminHandler{orders: orders} }

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	out, err := h.orders.List(r.Context())
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	out, err := h.orders.Details(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var upd backend.OrderUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if upd.Status == "" && upd.Note == "" {
		middleware.WriteError(w, r, http.StatusBadRequest, "nothing to update")
		return
	}

	out, err := h.orders.Update(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusOK, out)
}

type MenuBackend interface {
	Menu(ctx context.Context) (json.RawMessage, error)
}

type OwnerHandler struct{ menu MenuBackend }

func NewOwnerHandler(menu MenuBackend) *OwnerHandler { return &OwnerHandler{menu: menu} }

func (h *OwnerHandler) Menu(w http.ResponseWriter, r *http.Request) {
	out, err := h.menu.Menu(r.Context())
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusOK, out)
}
