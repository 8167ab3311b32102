package estimate

import (
	"math"
	"time"
)

// Normalize projects a provider quote into the client-facing Estimate.
//
// Seat policy: shared products honor the requested seat count; fixed-capacity
// vehicles report the product's capacity regardless of what the client asked
// for. Distance is floored to an integer in the provider's native unit.
// CreatedAt is the moment of normalization, so re-normalizing identical
// upstream data yields a distinct timestamp.
func Normalize(id string, raw RawEstimate, product ProductInfo, req Request) Estimate {
	seats := product.Capacity
	if product.Shared {
		seats = req.Seats
	}

	return Estimate{
		ID:          id,
		CreatedAt:   time.Now().UTC(),
		Price:       raw.Price,
		Currency:    raw.Currency,
		Distance:    int64(math.Floor(raw.Distance)),
		Seats:       seats,
		DisplayName: product.DisplayName,
		Start:       req.Start,
		End:         req.End,
	}
}
