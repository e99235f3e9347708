package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/contracts"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

const storeTimeout = 3 * time.Second

type CartEventsPublisher interface {
	PublishCartCheckedOut(ctx context.Context, c contracts.CheckedOutCart, md events.PublishMetadata) error
}

type CartHandler struct {
	carts          *cart.Registry
	eventPublisher CartEventsPublisher
	logger         *zap.Logger
}

func NewCartHandler(carts *cart.Registry, eventPublisher CartEventsPublisher, logger *zap.Logger) *CartHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartHandler{carts: carts, eventPublisher: eventPublisher, logger: logger}
}

// store returns the session's cart or writes a 500 when it cannot be loaded.
func (h *CartHandler) store(ctx context.Context, w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	sid := middleware.GetSessionID(ctx)
	s, err := h.carts.Get(ctx, sid)
	if err != nil {
		h.logger.Error("load cart", zap.String("session_id", sid), zap.Error(err))
		middleware.WriteError(w, r, http.StatusInternalServerError, "failed to load cart")
		return nil, false
	}
	return s, true
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	s, ok := h.store(ctx, w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

type addItemRequest struct {
	cart.ItemInput
	Qty *int `json:"qty"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var body addItemRequest
	if err := decodeJSON(w, r, &body); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	qty := 1
	if body.Qty != nil {
		qty = *body.Qty
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	s, ok := h.store(ctx, w, r)
	if !ok {
		return
	}
	if err := s.Add(ctx, body.ItemInput, qty); err != nil {
		writeCartError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Qty *int `json:"qty"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Qty == nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "qty is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	s, ok := h.store(ctx, w, r)
	if !ok {
		return
	}
	if err := s.UpdateQuantity(ctx, id, *body.Qty); err != nil {
		writeCartError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	s, ok := h.store(ctx, w, r)
	if !ok {
		return
	}
	if err := s.Remove(ctx, id); err != nil {
		writeCartError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	s, ok := h.store(ctx, w, r)
	if !ok {
		return
	}
	if err := s.Clear(ctx); err != nil {
		writeCartError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

type checkoutResponse struct {
	Status string `json:"status"`
	CartID string `json:"cartId"`
	cart.Snapshot
}

// Checkout publishes the cart and empties it. The cart is left untouched when
// publishing fails.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	sessionID := middleware.GetSessionID(ctx)
	cartID := uuid.NewString()
	md := events.PublishMetadata{
		CorrelationID: middleware.GetCorrelationID(ctx),
		CausationID:   r.Header.Get(middleware.HeaderCausationID),
	}

	s, ok := h.store(ctx, w, r)
	if !ok {
		return
	}
	snap, err := s.Settle(ctx, func(snap cart.Snapshot) error {
		return h.eventPublisher.PublishCartCheckedOut(ctx, contracts.CheckedOutCart{
			CartID:    cartID,
			SessionID: sessionID,
			Snapshot:  snap,
		}, md)
	})
	switch {
	case err == nil:
	case errorIsCart(err):
		writeCartError(w, r, err)
		return
	default:
		h.logger.Error("publish cart checked out", zap.String("session_id", sessionID), zap.Error(err))
		middleware.WriteError(w, r, http.StatusInternalServerError, "failed to publish cart checked out event")
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{
		Status:   "checkout completed",
		CartID:   cartID,
		Snapshot: snap,
	})
}

func errorIsCart(err error) bool {
	return errors.Is(err, cart.ErrEmptyCart) || errors.Is(err, cart.ErrInvalidItem)
}

func itemIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || id == "" {
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid item id")
		return "", false
	}
	return id, true
}
