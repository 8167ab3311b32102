package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider resolves a short-lived bearer credential for a session/provider
// pair. Resolution may be slow or fail; the engine scopes each failure to the
// provider being processed.
type Provider interface {
	AccessToken(ctx context.Context, sessionToken, providerID string) (string, error)
}

// HTTPProvider resolves credentials against the identity service.
type HTTPProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPProvider creates a credential provider for the identity service at baseURL.
func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// AccessToken fetches a bearer credential scoped to the session and provider.
func (p *HTTPProvider) AccessToken(ctx context.Context, sessionToken, providerID string) (string, error) {
	endpoint := fmt.Sprintf("%s/v1/access-tokens/%s", p.baseURL, url.PathEscape(providerID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("token", sessionToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("identity service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var body accessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("identity service returned empty access token")
	}
	return body.AccessToken, nil
}
