package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/farelink/service-estimates/internal/config"
	"go.uber.org/zap"
)

// Registration is the provider metadata announced to the service directory.
type Registration struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ClientName string   `json:"client_name"`
	Features   []string `json:"features"`
}

// Client registers provider metadata with the central service directory.
type Client interface {
	RegisterProvider(ctx context.Context, reg Registration) error
}

// HTTPClient talks to the directory's REST registration endpoint.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a directory client for the service at baseURL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// RegisterProvider announces one provider to the directory.
func (c *HTTPClient) RegisterProvider(ctx context.Context, reg Registration) error {
	body, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("failed to encode registration: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/services", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("directory returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}

// Registrar announces all configured providers at startup. Registration is
// not on the request path; failures are logged and the gateway keeps serving.
type Registrar struct {
	client    Client
	providers []config.ProviderConfig
	logger    *zap.Logger
}

// NewRegistrar creates a Registrar for the configured provider catalog.
func NewRegistrar(client Client, providers []config.ProviderConfig, logger *zap.Logger) *Registrar {
	return &Registrar{client: client, providers: providers, logger: logger}
}

// RegisterAll registers every configured provider with the directory.
func (r *Registrar) RegisterAll(ctx context.Context) {
	r.logger.Info("registering providers with service directory",
		zap.Int("count", len(r.providers)),
	)

	for _, p := range r.providers {
		reg := Registration{
			ID:         p.ID,
			Name:       p.Name,
			ClientName: "service-estimates",
			Features:   p.Features,
		}
		if err := r.client.RegisterProvider(ctx, reg); err != nil {
			r.logger.Error("failed to register provider",
				zap.String("provider_id", p.ID),
				zap.String("name", p.Name),
				zap.Error(err),
			)
			continue
		}
		r.logger.Debug("registered provider",
			zap.String("provider_id", p.ID),
			zap.String("name", p.Name),
		)
	}

	r.logger.Info("provider registration complete")
}
