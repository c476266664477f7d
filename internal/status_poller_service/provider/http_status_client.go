package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// HTTPStatusClient queries the external processing system's status endpoint.
type HTTPStatusClient struct {
	logger     *slog.Logger
	httpClient *http.Client
	apiURL     string
	apiKey     string
}

func NewHTTPStatusClient(logger *slog.Logger, apiURL, apiKey string, httpClient *http.Client) *HTTPStatusClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPStatusClient{
		logger:     logger.With("status_client", "http"),
		httpClient: httpClient,
		apiURL:     apiURL,
		apiKey:     apiKey,
	}
}

func (c *HTTPStatusClient) GetName() string { return "http" }

func (c *HTTPStatusClient) QueryStatus(ctx context.Context, externalRefID string) (*StatusResponse, error) {
	endpoint := fmt.Sprintf("%s/messages/%s/status", c.apiURL, url.PathEscape(externalRefID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create status request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query status for %s: %w", externalRefID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read status response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status query for %s returned %d: %s", externalRefID, resp.StatusCode, string(body))
	}

	var status StatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}

	c.logger.DebugContext(ctx, "Queried external status",
		"external_ref_id", externalRefID, "delivery_state", status.DeliveryState,
		"has_app_rec_status", status.AppRecStatus != nil)
	return &status, nil
}
