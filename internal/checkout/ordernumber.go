package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const orderNumberSuffixLen = 8

// NewOrderNumber builds a customer-facing order number like
// ORD-20250114-3KT9A2QF: the order date plus the random tail of a
// fresh ULID. Uniqueness is enforced by the orders table; callers
// retry with a new number on collision.
func NewOrderNumber(now time.Time) string {
	id := ulid.Make().String()
	suffix := strings.ToUpper(id[len(id)-orderNumberSuffixLen:])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
