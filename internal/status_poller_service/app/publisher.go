package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/meldeo/dialog-status-tracker/internal/core_domain"
	"github.com/meldeo/dialog-status-tracker/internal/platform/messagebroker"
)

// OutcomePublisher emits terminal outcome events. The poller calls it exactly
// once per (message, resolved outcome) pair, after the state transition has
// committed.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, event core_domain.MessageOutcomeEvent) error
}

// NATSOutcomePublisher publishes outcome events as JSON on a NATS subject.
type NATSOutcomePublisher struct {
	natsClient *messagebroker.NATSClient
	subject    string
	logger     *slog.Logger
}

func NewNATSOutcomePublisher(natsClient *messagebroker.NATSClient, subject string, logger *slog.Logger) *NATSOutcomePublisher {
	return &NATSOutcomePublisher{
		natsClient: natsClient,
		subject:    subject,
		logger:     logger.With("component", "outcome_publisher"),
	}
}

func (p *NATSOutcomePublisher) PublishOutcome(ctx context.Context, event core_domain.MessageOutcomeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal outcome event for %s: %w", event.ReferenceID, err)
	}
	if err := p.natsClient.Publish(ctx, p.subject, data); err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "Published outcome event",
		"reference_id", event.ReferenceID, "app_rec_status", event.AppRecStatus, "subject", p.subject)
	return nil
}
