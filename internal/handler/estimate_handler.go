package handler

import (
	"encoding/json"
	"net/http"

	"github.com/farelink/service-estimates/internal/application"
	"github.com/farelink/service-estimates/internal/domain/estimate"
	"github.com/gin-gonic/gin"
)

// EstimateHandler exposes the estimate fan-out and refresh operations over
// HTTP. The fan-out streams newline-delimited JSON, one object per provider,
// flushed as each upstream round trip completes.
type EstimateHandler struct {
	service *application.EstimateService
}

// NewEstimateHandler creates a new EstimateHandler.
func NewEstimateHandler(service *application.EstimateService) *EstimateHandler {
	return &EstimateHandler{service: service}
}

// RegisterRoutes registers all estimate routes on the given router group.
func (h *EstimateHandler) RegisterRoutes(r *gin.RouterGroup) {
	estimates := r.Group("/api/v1/estimates")
	estimates.Use(SessionTokenMiddleware())
	{
		estimates.POST("", h.GetEstimates)
		estimates.POST("/:id/refresh", h.GetEstimateRefresh)
	}
}

// streamItem is the wire shape of one streamed fan-out result.
type streamItem struct {
	ProviderID string             `json:"provider_id"`
	Estimate   *estimate.Estimate `json:"estimate,omitempty"`
	Error      *streamError       `json:"error,omitempty"`
}

type streamError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// GetEstimates handles POST /api/v1/estimates.
func (h *EstimateHandler) GetEstimates(c *gin.Context) {
	var req estimate.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, estimate.NewInvalidRequestError(err.Error()))
		return
	}

	ctx := c.Request.Context()
	results, err := h.service.GetEstimates(ctx, sessionToken(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "application/x-ndjson")
	c.Writer.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(c.Writer)
	for res := range results {
		item := streamItem{ProviderID: res.ProviderID, Estimate: res.Estimate}
		if res.Err != nil {
			item.Error = toStreamError(res.Err)
		}
		if err := enc.Encode(item); err != nil {
			// Client went away; the engine sees the cancelled context.
			return
		}
		c.Writer.Flush()
	}
}

// GetEstimateRefresh handles POST /api/v1/estimates/:id/refresh.
func (h *EstimateHandler) GetEstimateRefresh(c *gin.Context) {
	estimateID := c.Param("id")

	est, err := h.service.GetEstimateRefresh(c.Request.Context(), sessionToken(c), estimateID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, est)
}

func toStreamError(err error) *streamError {
	kind := estimate.KindOf(err)
	if kind == "" {
		kind = estimate.KindUpstream
	}
	return &streamError{Kind: string(kind), Message: err.Error()}
}
