package shipping

import (
	"context"
	"strings"

	"mebelin-be/internal/logger"

	"go.uber.org/zap"
)

// Quoter prices delivery of a parcel to a destination city. An unknown
// courier or city quotes zero rather than failing checkout.
type Quoter interface {
	Quote(ctx context.Context, city string, weightGrams int, courier string) int64
}

type rate struct {
	base  int64 // first kilogram
	perKg int64 // each additional kilogram, rounded up
}

// Flat rate card per courier. Jabodetabek cities get the base tier,
// everything else the outer tier.
var rateCard = map[string]struct {
	inner rate
	outer rate
}{
	"jne":     {inner: rate{base: 10000, perKg: 5000}, outer: rate{base: 18000, perKg: 9000}},
	"jnt":     {inner: rate{base: 9000, perKg: 4500}, outer: rate{base: 16000, perKg: 8000}},
	"sicepat": {inner: rate{base: 9500, perKg: 5000}, outer: rate{base: 17000, perKg: 8500}},
}

var innerCities = map[string]bool{
	"jakarta":   true,
	"bogor":     true,
	"depok":     true,
	"tangerang": true,
	"bekasi":    true,
}

type quoter struct{}

func NewQuoter() Quoter {
	return &quoter{}
}

func (q *quoter) Quote(ctx context.Context, city string, weightGrams int, courier string) int64 {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "QuoteShipping"),
		zap.String("courier", courier),
		zap.String("city", city),
	)

	card, ok := rateCard[strings.ToLower(courier)]
	if !ok {
		log.Warn("unknown courier, quoting zero")
		return 0
	}

	r := card.outer
	if innerCities[strings.ToLower(strings.TrimSpace(city))] {
		r = card.inner
	}

	if weightGrams <= 0 {
		weightGrams = 1
	}
	kg := (weightGrams + 999) / 1000

	cost := r.base
	if kg > 1 {
		cost += int64(kg-1) * r.perKg
	}

	log.Debug("shipping quoted", zap.Int("kg", kg), zap.Int64("cost", cost))
	return cost
}
