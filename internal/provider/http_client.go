package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/farelink/service-estimates/internal/domain/estimate"
)

// HTTPClient is the REST adapter for one provider's upstream API. All
// configured providers speak the same internal provider protocol, so a single
// adapter type parameterized by base URL covers the registry.
type HTTPClient struct {
	providerID string
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates an upstream adapter for the given provider.
func NewHTTPClient(providerID, baseURL string) *HTTPClient {
	return &HTTPClient{
		providerID: providerID,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type estimateResponse struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Distance float64 `json:"distance"`
}

type productResponse struct {
	DisplayName string `json:"display_name"`
	Capacity    int32  `json:"capacity"`
	Shared      bool   `json:"shared"`
}

// RequestEstimate issues the upstream fare-quote call.
func (c *HTTPClient) RequestEstimate(ctx context.Context, credential string, query EstimateQuery) (estimate.RawEstimate, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return estimate.RawEstimate{}, estimate.NewUpstreamError(c.providerID, "failed to encode estimate query", err)
	}

	var resp estimateResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/v1/estimates", credential, bytes.NewReader(body), &resp); err != nil {
		return estimate.RawEstimate{}, estimate.NewUpstreamError(c.providerID, "estimate query failed", err)
	}
	if resp.Currency == "" {
		return estimate.RawEstimate{}, estimate.NewUpstreamError(c.providerID, "estimate response missing currency", nil)
	}

	return estimate.RawEstimate{
		Price:    resp.Price,
		Currency: resp.Currency,
		Distance: resp.Distance,
	}, nil
}

// GetProduct issues the upstream product lookup.
func (c *HTTPClient) GetProduct(ctx context.Context, credential string, providerID string) (estimate.ProductInfo, error) {
	var resp productResponse
	url := fmt.Sprintf("%s/v1/products/%s", c.baseURL, providerID)
	if err := c.do(ctx, http.MethodGet, url, credential, nil, &resp); err != nil {
		return estimate.ProductInfo{}, estimate.NewUpstreamError(providerID, "product query failed", err)
	}
	if resp.Capacity <= 0 {
		return estimate.ProductInfo{}, estimate.NewUpstreamError(providerID, "product response has non-positive capacity", nil)
	}

	return estimate.ProductInfo{
		DisplayName: resp.DisplayName,
		Capacity:    resp.Capacity,
		Shared:      resp.Shared,
	}, nil
}

func (c *HTTPClient) do(ctx context.Context, method, url, credential string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upstream returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
