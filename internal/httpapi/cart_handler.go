package httpapi

import (
	"net/http"
	"strconv"

	"mebelin-be/internal/cart"
	"mebelin-be/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CartHandler struct {
	service cart.Service
}

func NewCartHandler(service cart.Service) *CartHandler {
	return &CartHandler{service: service}
}

type addItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor := transport.GetActor(r.Context())
	if actor == nil {
		respondUnauthenticated(w)
		return
	}

	c, err := h.service.GetCart(r.Context(), actor)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, c)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	actor := transport.GetActor(r.Context())
	if actor == nil {
		respondUnauthenticated(w)
		return
	}

	var req addItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	item, err := h.service.AddToCart(r.Context(), actor, req.ProductID, req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	actor := transport.GetActor(r.Context())
	if actor == nil {
		respondUnauthenticated(w)
		return
	}

	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}

	var req updateItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.service.UpdateQuantity(r.Context(), actor, productID, req.Quantity); err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	actor := transport.GetActor(r.Context())
	if actor == nil {
		respondUnauthenticated(w)
		return
	}

	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}

	if err := h.service.RemoveFromCart(r.Context(), actor, productID); err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	actor := transport.GetActor(r.Context())
	if actor == nil {
		respondUnauthenticated(w)
		return
	}

	if err := h.service.ClearCart(r.Context(), actor); err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// Merge folds the guest cart named by X-Session-ID into the
// authenticated user's cart. Called by the frontend right after login.
func (h *CartHandler) Merge(w http.ResponseWriter, r *http.Request) {
	u, ok := transport.GetActor(r.Context()).(cart.User)
	if !ok {
		respondUnauthenticated(w)
		return
	}

	sessionID, err := uuid.Parse(r.Header.Get("X-Session-ID"))
	if err != nil {
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: errorBody{
			Code:    CodeValidation,
			Message: "a valid X-Session-ID header is required",
		}})
		return
	}

	if err := h.service.MergeGuestIntoUser(r.Context(), u.ID, sessionID); err != nil {
		respondError(w, r, err)
		return
	}

	c, err := h.service.GetCart(r.Context(), u)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, c)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: errorBody{
			Code:    CodeValidation,
			Message: "invalid " + name,
		}})
		return 0, false
	}
	return uint(id), true
}
