package checkout

import "errors"

var (
	// -- Validation & Input --
	ErrMissingShippingInfo  = errors.New("shipping name, phone, address, city, province and postal code are required")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// -- Conflict --
	ErrOrderNumberExhausted = errors.New("could not allocate a unique order number")
)
