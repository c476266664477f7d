package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meldeo/dialog-status-tracker/internal/core_domain"
	"github.com/meldeo/dialog-status-tracker/internal/intake_service/provider"
	"github.com/meldeo/dialog-status-tracker/internal/statestore"
)

// InboundMessage is a message received from the inbound transport, ready to be
// dispatched to the external processing system.
type InboundMessage struct {
	ID          string
	MessageType core_domain.MessageType
	Payload     []byte
}

// MessageProcessor submits inbound messages and registers accepted ones in the
// state store. It performs no retries; redelivery is the inbound transport's
// responsibility.
type MessageProcessor struct {
	dispatcher provider.MessageDispatcher
	store      statestore.StateStore
	logger     *slog.Logger
}

func NewMessageProcessor(dispatcher provider.MessageDispatcher, store statestore.StateStore, logger *slog.Logger) *MessageProcessor {
	return &MessageProcessor{
		dispatcher: dispatcher,
		store:      store,
		logger:     logger.With("component", "message_processor"),
	}
}

// ProcessAndSendMessage submits msg via the dispatcher. Only a response
// carrying a receipt and no error creates tracking state; a response carrying
// an error is never trusted, even when a receipt accompanies it.
func (p *MessageProcessor) ProcessAndSendMessage(ctx context.Context, msg InboundMessage) error {
	result, err := p.dispatcher.Submit(ctx, provider.SubmitRequest{
		MessageID:   msg.ID,
		MessageType: msg.MessageType,
		Payload:     msg.Payload,
	})
	if err != nil {
		intakeProcessedCounter.WithLabelValues(string(msg.MessageType), "error_transport").Inc()
		return fmt.Errorf("submit message %s: %w", msg.ID, err)
	}

	switch {
	case result.Error != nil:
		// Covers the ambiguous "both receipt and error" case too.
		p.logger.WarnContext(ctx, "Submission not accepted, no state created",
			"message_id", msg.ID, "code", result.Error.Code, "error_message", result.Error.Message,
			"request_id", result.Error.RequestID, "has_receipt", result.Receipt != nil)
		intakeProcessedCounter.WithLabelValues(string(msg.MessageType), "rejected_by_external").Inc()
		return nil
	case result.Receipt == nil:
		p.logger.WarnContext(ctx, "Submission response carried neither receipt nor error, no state created",
			"message_id", msg.ID)
		intakeProcessedCounter.WithLabelValues(string(msg.MessageType), "empty_response").Inc()
		return nil
	}

	created, err := p.store.CreateState(ctx, msg.MessageType, core_domain.StateNew,
		result.Receipt.ID, result.Receipt.Location, time.Now().UTC())
	if err != nil {
		intakeProcessedCounter.WithLabelValues(string(msg.MessageType), "error_store").Inc()
		return fmt.Errorf("create state for %s: %w", result.Receipt.ID, err)
	}

	p.logger.InfoContext(ctx, "Message submitted and registered for tracking",
		"message_id", msg.ID, "external_ref_id", created.ExternalRefID, "state", created.CurrentState)
	intakeProcessedCounter.WithLabelValues(string(msg.MessageType), "registered").Inc()
	return nil
}
