package httpapi

import (
	"net/http"
	"strconv"

	"mebelin-be/internal/cart"
	"mebelin-be/internal/order"
	"mebelin-be/internal/payment"
	"mebelin-be/internal/transport"
)

type OrderHandler struct {
	service order.Service
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{service: service}
}

func requestIdentity(r *http.Request) (userID *uint, isAdmin bool) {
	if u, ok := transport.GetActor(r.Context()).(cart.User); ok {
		userID = &u.ID
	}
	return userID, transport.IsAdmin(r.Context())
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := transport.GetActor(r.Context()).(cart.User)
	if !ok {
		respondUnauthenticated(w)
		return
	}

	filter := listFilterFromQuery(r)
	filter.UserID = &u.ID

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}

	userID, isAdmin := requestIdentity(r)
	if userID == nil && !isAdmin {
		respondUnauthenticated(w)
		return
	}

	o, err := h.service.GetOrder(r.Context(), orderID, userID, isAdmin)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

// Instructions returns the manual payment steps for an order the
// caller owns.
func (h *OrderHandler) Instructions(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}

	userID, isAdmin := requestIdentity(r)
	if userID == nil && !isAdmin {
		respondUnauthenticated(w)
		return
	}

	o, err := h.service.GetOrder(r.Context(), orderID, userID, isAdmin)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"order_number":   o.OrderNumber,
		"payment_method": o.PaymentMethod,
		"total":          o.Total,
		"steps":          payment.Instructions(o),
	})
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel lets a customer cancel their own order while the state
// machine still allows it.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}

	userID, isAdmin := requestIdentity(r)
	if userID == nil && !isAdmin {
		respondUnauthenticated(w)
		return
	}

	// Ownership check before touching the state machine.
	if _, err := h.service.GetOrder(r.Context(), orderID, userID, isAdmin); err != nil {
		respondError(w, r, err)
		return
	}

	var req cancelRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.service.Cancel(r.Context(), orderID, req.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

func listFilterFromQuery(r *http.Request) order.ListFilter {
	var filter order.ListFilter

	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		status := order.Status(s)
		filter.Status = &status
	}
	if s := q.Get("payment_status"); s != "" {
		ps := order.PaymentStatus(s)
		filter.PaymentStatus = &ps
	}
	if s := q.Get("limit"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 32); err == nil {
			filter.Limit = int32(n)
		}
	}
	if s := q.Get("page"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 32); err == nil {
			filter.Page = int32(n)
		}
	}

	return filter
}
