package provider

import (
	"context"
	"log/slog"
	"sync"

	"github.com/meldeo/dialog-status-tracker/internal/core_domain"
)

// MockStatusClient is a test implementation of StatusClient with per-reference
// scripted responses.
type MockStatusClient struct {
	logger *slog.Logger

	mu        sync.Mutex
	responses map[string]StatusResponse
	Default   StatusResponse
}

func NewMockStatusClient(logger *slog.Logger) *MockStatusClient {
	return &MockStatusClient{
		logger:    logger.With("status_client", "mock"),
		responses: make(map[string]StatusResponse),
		Default:   StatusResponse{DeliveryState: core_domain.DeliveryUnconfirmed},
	}
}

func (c *MockStatusClient) GetName() string { return "mock" }

// SetStatus scripts the response for one reference id.
func (c *MockStatusClient) SetStatus(externalRefID string, resp StatusResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses[externalRefID] = resp
}

func (c *MockStatusClient) QueryStatus(ctx context.Context, externalRefID string) (*StatusResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, ok := c.responses[externalRefID]
	if !ok {
		resp = c.Default
	}
	c.logger.DebugContext(ctx, "MockStatusClient: QueryStatus", "external_ref_id", externalRefID, "delivery_state", resp.DeliveryState)
	out := resp
	return &out, nil
}
