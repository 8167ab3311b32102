package provider

import (
	"context"

	"github.com/farelink/service-estimates/internal/domain/estimate"
)

// EstimateQuery is the upstream fare-quote request for one provider.
type EstimateQuery struct {
	StartLatitude  float64 `json:"start_latitude"`
	StartLongitude float64 `json:"start_longitude"`
	EndLatitude    float64 `json:"end_latitude"`
	EndLongitude   float64 `json:"end_longitude"`
	SeatCount      int32   `json:"seat_count"`
	ProviderID     string  `json:"product_id"`
}

// Client is the per-provider upstream capability. Implementations carry their
// own transport and retry policy; the engine never retries on top.
type Client interface {
	RequestEstimate(ctx context.Context, credential string, query EstimateQuery) (estimate.RawEstimate, error)
	GetProduct(ctx context.Context, credential string, providerID string) (estimate.ProductInfo, error)
}

// Registry selects the upstream client for a provider id. An unrecognized id
// is a per-item failure, not an abort of the whole request.
type Registry struct {
	clients map[string]Client
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Register binds a provider id to its upstream client.
func (r *Registry) Register(providerID string, client Client) {
	r.clients[providerID] = client
}

// ClientFor returns the client registered for providerID.
func (r *Registry) ClientFor(providerID string) (Client, error) {
	client, ok := r.clients[providerID]
	if !ok {
		return nil, estimate.NewUpstreamError(providerID, "unknown provider", nil)
	}
	return client, nil
}

// ProviderIDs lists all registered provider ids.
func (r *Registry) ProviderIDs() []string {
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	return ids
}
