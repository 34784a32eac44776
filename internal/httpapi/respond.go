package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"mebelin-be/internal/cart"
	"mebelin-be/internal/checkout"
	"mebelin-be/internal/logger"
	"mebelin-be/internal/order"
	"mebelin-be/internal/product"

	"go.uber.org/zap"
)

// Error codes surfaced to clients.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeOutOfStock        = "OUT_OF_STOCK"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL_ERROR"
)

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondError maps domain errors onto the wire taxonomy. Anything
// unrecognized is a 500 with the detail kept out of the response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)

	if status >= http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	respondJSON(w, status, errorResponse{Error: body})
}

func classify(err error) (int, errorBody) {
	if oos, ok := product.AsOutOfStock(err); ok {
		return http.StatusConflict, errorBody{
			Code:    CodeOutOfStock,
			Message: oos.Error(),
			Details: map[string]any{
				"product_id": oos.ProductID,
				"available":  oos.Available,
				"requested":  oos.Requested,
			},
		}
	}

	if ite, ok := order.AsInvalidTransition(err); ok {
		return http.StatusConflict, errorBody{
			Code:    CodeInvalidTransition,
			Message: ite.Error(),
			Details: map[string]any{
				"axis": ite.Axis,
				"from": ite.From,
				"to":   ite.To,
			},
		}
	}

	switch {
	case errors.Is(err, cart.ErrInsufficientStock):
		return http.StatusConflict, errorBody{Code: CodeOutOfStock, Message: err.Error()}

	case errors.Is(err, cart.ErrCartNotFound),
		errors.Is(err, cart.ErrCartItemNotFound),
		errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound, errorBody{Code: CodeNotFound, Message: err.Error()}

	case errors.Is(err, order.ErrUnauthorized):
		return http.StatusForbidden, errorBody{Code: CodeUnauthorized, Message: err.Error()}

	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidActor),
		errors.Is(err, cart.ErrCartEmpty),
		errors.Is(err, product.ErrInvalidQuantity),
		errors.Is(err, checkout.ErrMissingShippingInfo),
		errors.Is(err, checkout.ErrInvalidPaymentMethod),
		errors.Is(err, order.ErrCancellationReasonRequired),
		errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, order.ErrUnknownPaymentStatus),
		errors.Is(err, order.ErrNothingToUpdate):
		return http.StatusUnprocessableEntity, errorBody{Code: CodeValidation, Message: err.Error()}
	}

	return http.StatusInternalServerError, errorBody{
		Code:    CodeInternal,
		Message: "internal server error",
	}
}

func respondUnauthenticated(w http.ResponseWriter) {
	respondJSON(w, http.StatusUnauthorized, errorResponse{Error: errorBody{
		Code:    CodeUnauthorized,
		Message: "authentication required",
	}})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: errorBody{
			Code:    CodeValidation,
			Message: "malformed request body",
		}})
		return false
	}
	return true
}
