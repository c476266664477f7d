package provider

import (
	"context"

	"github.com/meldeo/dialog-status-tracker/internal/core_domain"
)

// StatusResponse is the external system's current view of one message:
// a delivery state plus an optional receipt status.
type StatusResponse struct {
	DeliveryState core_domain.ExternalDeliveryState `json:"deliveryState"`
	AppRecStatus  *core_domain.AppRecStatus         `json:"appRecStatus,omitempty"`
}

// StatusClient queries the external processing system for the delivery status
// of a previously submitted message.
type StatusClient interface {
	QueryStatus(ctx context.Context, externalRefID string) (*StatusResponse, error)
	GetName() string
}
