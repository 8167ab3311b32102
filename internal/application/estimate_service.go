package application

import (
	"context"
	"time"

	"github.com/farelink/service-estimates/internal/credentials"
	"github.com/farelink/service-estimates/internal/domain/estimate"
	"github.com/farelink/service-estimates/internal/events"
	"github.com/farelink/service-estimates/internal/provider"
	"go.uber.org/zap"
)

// EventPublisher publishes CloudEvents. Satisfied by *events.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event events.CloudEvent) error
}

// EstimateService orchestrates credential resolution, upstream queries,
// normalization and continuation persistence for the estimate fan-out and
// refresh operations. All per-request state lives on the call stack; the
// service itself is safe for concurrent use.
type EstimateService struct {
	providers   *provider.Registry
	credentials credentials.Provider
	store       estimate.ContinuationStore
	publisher   EventPublisher
	logger      *zap.Logger
}

// NewEstimateService creates a new EstimateService.
func NewEstimateService(
	providers *provider.Registry,
	creds credentials.Provider,
	store estimate.ContinuationStore,
	publisher EventPublisher,
	logger *zap.Logger,
) *EstimateService {
	return &EstimateService{
		providers:   providers,
		credentials: creds,
		store:       store,
		publisher:   publisher,
		logger:      logger,
	}
}

// GetEstimates fans out the request to every named provider and yields one
// Result per provider, in request order, over the returned channel. The
// channel is closed after the last provider; cancelling ctx stops the fan-out
// before the next provider is started. A provider failure occupies its slot
// as a typed error Result and the stream continues.
func (s *EstimateService) GetEstimates(ctx context.Context, sessionToken string, req estimate.Request) (<-chan estimate.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	results := make(chan estimate.Result)
	go func() {
		defer close(results)
		for _, providerID := range req.ProviderIDs {
			if ctx.Err() != nil {
				return
			}

			est, err := s.estimateProvider(ctx, sessionToken, providerID, req)

			var res estimate.Result
			if err != nil {
				s.logger.Warn("provider estimate failed",
					zap.String("provider_id", providerID),
					zap.Error(err),
				)
				s.publishFailed(ctx, providerID, err)
				res = estimate.Result{ProviderID: providerID, Err: err}
			} else {
				s.publishQuoted(ctx, est, providerID)
				res = estimate.Result{ProviderID: providerID, Estimate: est}
			}

			select {
			case results <- res:
			case <-ctx.Done():
				return
			}
		}
	}()

	return results, nil
}

// GetEstimateRefresh re-quotes a previously returned estimate from its cached
// continuation. The new estimate gets a new id; the re-persisted continuation
// carries the original request, so chained refreshes always trace back to the
// original parameters. Any failure is terminal for the call.
func (s *EstimateService) GetEstimateRefresh(ctx context.Context, sessionToken, estimateID string) (*estimate.Estimate, error) {
	if estimateID == "" {
		return nil, estimate.NewInvalidRequestError("estimate id is required")
	}

	cont, err := s.store.Get(ctx, estimateID)
	if err != nil {
		return nil, err
	}

	est, err := s.estimateProvider(ctx, sessionToken, cont.ProviderID, cont.Request)
	if err != nil {
		s.publishFailed(ctx, cont.ProviderID, err)
		return nil, err
	}

	s.publishRefreshed(ctx, est, estimateID, cont.ProviderID)
	return est, nil
}

// estimateProvider runs the per-provider pipeline: credential, upstream
// estimate and product queries, id generation, normalization, and the
// best-effort continuation write.
func (s *EstimateService) estimateProvider(ctx context.Context, sessionToken, providerID string, req estimate.Request) (*estimate.Estimate, error) {
	client, err := s.providers.ClientFor(providerID)
	if err != nil {
		return nil, err
	}

	credential, err := s.credentials.AccessToken(ctx, sessionToken, providerID)
	if err != nil {
		return nil, estimate.NewCredentialError(providerID, err)
	}

	raw, err := client.RequestEstimate(ctx, credential, provider.EstimateQuery{
		StartLatitude:  req.Start.Latitude,
		StartLongitude: req.Start.Longitude,
		EndLatitude:    req.End.Latitude,
		EndLongitude:   req.End.Longitude,
		SeatCount:      req.Seats,
		ProviderID:     providerID,
	})
	if err != nil {
		return nil, asUpstreamError(providerID, "estimate query failed", err)
	}

	product, err := client.GetProduct(ctx, credential, providerID)
	if err != nil {
		return nil, asUpstreamError(providerID, "product query failed", err)
	}

	id := estimate.NewEstimateID(providerID)
	est := estimate.Normalize(id, raw, product, req)

	// The continuation write is best-effort: a cache failure must not cost
	// the client an otherwise-successful estimate. Refresh for this id will
	// then report not found.
	cont := estimate.Continuation{Raw: raw, Request: req, ProviderID: providerID}
	if err := s.store.Set(ctx, id, cont, estimate.ContinuationTTL); err != nil {
		s.logger.Error("failed to persist estimate continuation",
			zap.String("estimate_id", id),
			zap.String("provider_id", providerID),
			zap.Error(err),
		)
	}

	return &est, nil
}

// asUpstreamError keeps already-typed errors intact and classifies everything
// else a provider client returns as an upstream failure.
func asUpstreamError(providerID, message string, err error) error {
	if estimate.KindOf(err) != "" {
		return err
	}
	return estimate.NewUpstreamError(providerID, message, err)
}

func (s *EstimateService) publishQuoted(ctx context.Context, est *estimate.Estimate, providerID string) {
	s.publish(ctx, events.EstimateQuoted, events.EstimateQuotedEvent{
		EstimateID: est.ID,
		ProviderID: providerID,
		Price:      est.Price,
		Currency:   est.Currency,
		Seats:      est.Seats,
		OccurredAt: time.Now().UTC(),
	})
}

func (s *EstimateService) publishRefreshed(ctx context.Context, est *estimate.Estimate, prevID, providerID string) {
	s.publish(ctx, events.EstimateRefreshed, events.EstimateRefreshedEvent{
		EstimateID:     est.ID,
		PrevEstimateID: prevID,
		ProviderID:     providerID,
		Price:          est.Price,
		Currency:       est.Currency,
		OccurredAt:     time.Now().UTC(),
	})
}

func (s *EstimateService) publishFailed(ctx context.Context, providerID string, failure error) {
	s.publish(ctx, events.EstimateFailed, events.EstimateFailedEvent{
		ProviderID: providerID,
		Kind:       string(estimate.KindOf(failure)),
		Reason:     failure.Error(),
		OccurredAt: time.Now().UTC(),
	})
}

func (s *EstimateService) publish(ctx context.Context, eventType string, data interface{}) {
	cloudEvent, err := events.NewCloudEvent("service-estimates", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.PublishEvent(ctx, events.TopicEstimateEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicEstimateEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
