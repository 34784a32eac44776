package httpapi

import (
	"net/http"

	"mebelin-be/internal/checkout"
	"mebelin-be/internal/order"
	"mebelin-be/internal/transport"
)

type CheckoutHandler struct {
	service checkout.Service
}

func NewCheckoutHandler(service checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

type checkoutRequest struct {
	PaymentMethod      string  `json:"payment_method"`
	ShippingName       string  `json:"shipping_name"`
	ShippingPhone      string  `json:"shipping_phone"`
	ShippingAddress    string  `json:"shipping_address"`
	ShippingCity       string  `json:"shipping_city"`
	ShippingProvince   string  `json:"shipping_province"`
	ShippingPostalCode string  `json:"shipping_postal_code"`
	Courier            string  `json:"courier"`
	CustomerNotes      *string `json:"customer_notes"`
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	actor := transport.GetActor(r.Context())
	if actor == nil {
		respondUnauthenticated(w)
		return
	}

	var req checkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.service.Checkout(r.Context(), checkout.Input{
		Actor:              actor,
		PaymentMethod:      order.PaymentMethod(req.PaymentMethod),
		ShippingName:       req.ShippingName,
		ShippingPhone:      req.ShippingPhone,
		ShippingAddress:    req.ShippingAddress,
		ShippingCity:       req.ShippingCity,
		ShippingProvince:   req.ShippingProvince,
		ShippingPostalCode: req.ShippingPostalCode,
		Courier:            req.Courier,
		CustomerNotes:      req.CustomerNotes,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, o)
}
