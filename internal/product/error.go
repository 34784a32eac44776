package product

import (
	"errors"
	"fmt"
)

var (
	// -- Resource State --
	ErrProductNotFound = errors.New("product not found")

	// -- Validation & Input --
	ErrInvalidQuantity = errors.New("reservation quantity must be positive")
)

// OutOfStockError reports the specific product that blocked a
// reservation so the caller can retry with a lower quantity.
type OutOfStockError struct {
	ProductID   uint
	ProductName string
	Available   int
	Requested   int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("%s: only %d left", e.ProductName, e.Available)
}

// AsOutOfStock unwraps err into an OutOfStockError when possible.
func AsOutOfStock(err error) (*OutOfStockError, bool) {
	var oos *OutOfStockError
	if errors.As(err, &oos) {
		return oos, true
	}
	return nil, false
}
