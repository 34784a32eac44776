package coupon

import "time"

const (
	KindFixed   = "fixed"
	KindPercent = "percent"
)

type Coupon struct {
	ID          uint       `json:"id"`
	Code        string     `json:"code"`
	Kind        string     `json:"kind"`
	Value       int64      `json:"value"`
	MinSubtotal int64      `json:"min_subtotal"`
	UsageLimit  *int       `json:"usage_limit,omitempty"`
	UsedCount   int        `json:"used_count"`
	Active      bool       `json:"active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
