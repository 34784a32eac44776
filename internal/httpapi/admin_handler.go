package httpapi

import (
	"net/http"
	"strconv"

	"mebelin-be/internal/order"
)

type AdminOrderHandler struct {
	service order.Service
}

func NewAdminOrderHandler(service order.Service) *AdminOrderHandler {
	return &AdminOrderHandler{service: service}
}

func (h *AdminOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := listFilterFromQuery(r)

	if s := r.URL.Query().Get("user_id"); s != "" {
		if id, err := strconv.ParseUint(s, 10, 64); err == nil {
			uid := uint(id)
			filter.UserID = &uid
		}
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

func (h *AdminOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}

	o, err := h.service.GetOrder(r.Context(), orderID, nil, true)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

type adminUpdateRequest struct {
	Status             *string `json:"status"`
	PaymentStatus      *string `json:"payment_status"`
	TrackingNumber     *string `json:"tracking_number"`
	CancellationReason *string `json:"cancellation_reason"`
	AdminNotes         *string `json:"admin_notes"`
}

// Update is the partial-update endpoint: any subset of fields may be
// present, and every present field is validated before anything is
// written.
func (h *AdminOrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}

	var req adminUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	update := order.AdminUpdate{
		TrackingNumber:     req.TrackingNumber,
		CancellationReason: req.CancellationReason,
		AdminNotes:         req.AdminNotes,
	}
	if req.Status != nil {
		status := order.Status(*req.Status)
		update.Status = &status
	}
	if req.PaymentStatus != nil {
		ps := order.PaymentStatus(*req.PaymentStatus)
		update.PaymentStatus = &ps
	}

	o, err := h.service.ApplyAdminUpdate(r.Context(), orderID, update)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, o)
}
