package estimate

import (
	"time"
)

// ContinuationTTL is how long a continuation stays resolvable for refresh.
const ContinuationTTL = 24 * time.Hour

// GeoPoint is a WGS84 coordinate pair in decimal degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Request is the client input for an estimate fan-out. ProviderIDs keeps the
// client's order; duplicates are allowed and processed independently.
type Request struct {
	Start       GeoPoint `json:"start"`
	End         GeoPoint `json:"end"`
	Seats       int32    `json:"seats"`
	ProviderIDs []string `json:"provider_ids"`
}

// Validate checks the request against the engine's preconditions.
func (r Request) Validate() error {
	if len(r.ProviderIDs) == 0 {
		return NewInvalidRequestError("at least one provider is required")
	}
	if r.Seats <= 0 {
		return NewInvalidRequestError("seat count must be positive")
	}
	for _, p := range []GeoPoint{r.Start, r.End} {
		if p.Latitude < -90 || p.Latitude > 90 {
			return NewInvalidRequestError("latitude out of range")
		}
		if p.Longitude < -180 || p.Longitude > 180 {
			return NewInvalidRequestError("longitude out of range")
		}
	}
	return nil
}

// RawEstimate is the provider-native quote, consumed immediately into a
// normalized Estimate or a cached continuation.
type RawEstimate struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Distance float64 `json:"distance"`
}

// ProductInfo describes the provider's product. It is re-fetched on every
// estimate and refresh, never cached on its own.
type ProductInfo struct {
	DisplayName string `json:"display_name"`
	Capacity    int32  `json:"capacity"`
	Shared      bool   `json:"shared"`
}

// Estimate is the client-facing projection of one provider quote. It is
// immutable once constructed.
type Estimate struct {
	ID          string    `json:"estimate_id"`
	CreatedAt   time.Time `json:"created_at"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	Distance    int64     `json:"distance"`
	Seats       int32     `json:"seats"`
	DisplayName string    `json:"display_name"`
	Start       GeoPoint  `json:"start"`
	End         GeoPoint  `json:"end"`
}

// Continuation is the cache payload written under an estimate's ID. It
// carries the full original request so a refresh (or a chain of refreshes)
// can always re-issue an equivalent upstream query without client input.
type Continuation struct {
	Raw        RawEstimate `json:"raw_estimate"`
	Request    Request     `json:"request"`
	ProviderID string      `json:"provider_id"`
}

// Result is one unit of work on the estimate stream: exactly one of Estimate
// or Err is set. Failed providers still occupy their slot in the stream so
// the client can correlate results positionally with its provider list.
type Result struct {
	ProviderID string
	Estimate   *Estimate
	Err        error
}
