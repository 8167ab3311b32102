package events

import "time"

// Topic and event type constants for the estimate lifecycle.
const (
	TopicEstimateEvents = "estimate.events"

	EstimateQuoted    = "estimate.quoted"
	EstimateRefreshed = "estimate.refreshed"
	EstimateFailed    = "estimate.failed"
)

// EstimateQuotedEvent is published for every estimate emitted on the stream.
type EstimateQuotedEvent struct {
	EstimateID string    `json:"estimate_id"`
	ProviderID string    `json:"provider_id"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	Seats      int32     `json:"seats"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EstimateRefreshedEvent is published when a refresh produces a new estimate.
type EstimateRefreshedEvent struct {
	EstimateID     string    `json:"estimate_id"`
	PrevEstimateID string    `json:"prev_estimate_id"`
	ProviderID     string    `json:"provider_id"`
	Price          float64   `json:"price"`
	Currency       string    `json:"currency"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// EstimateFailedEvent is published when a provider's unit of work fails.
type EstimateFailedEvent struct {
	ProviderID string    `json:"provider_id"`
	Kind       string    `json:"kind"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
