package product

import "time"

// EffectivePrice returns the price a unit of p sells for at the given
// instant: the configured discount percentage applied while now falls
// inside the discount window, the base price otherwise. A nil window
// bound leaves that side open. Integer rupiah, rounded down.
func EffectivePrice(p *Product, now time.Time) int64 {
	if p.DiscountPercent == nil || *p.DiscountPercent <= 0 {
		return p.Price
	}

	pct := *p.DiscountPercent
	if pct > 100 {
		pct = 100
	}

	if p.DiscountStartsAt != nil && now.Before(*p.DiscountStartsAt) {
		return p.Price
	}
	if p.DiscountEndsAt != nil && now.After(*p.DiscountEndsAt) {
		return p.Price
	}

	return p.Price * int64(100-pct) / 100
}
