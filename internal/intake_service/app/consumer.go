package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/meldeo/dialog-status-tracker/internal/core_domain"
	"github.com/meldeo/dialog-status-tracker/internal/platform/messagebroker"
)

const processTimeout = 30 * time.Second

// InboundMessageDTO is the wire shape of an inbound message on NATS.
type InboundMessageDTO struct {
	ID          string `json:"id" validate:"required"`
	MessageType string `json:"messageType" validate:"required"`
	Payload     []byte `json:"payload" validate:"required"`
}

// IntakeConsumer subscribes to the inbound subject and hands decoded messages
// to the processor.
type IntakeConsumer struct {
	natsClient *messagebroker.NATSClient
	processor  *MessageProcessor
	validate   *validator.Validate
	logger     *slog.Logger
	sub        *nats.Subscription
}

func NewIntakeConsumer(natsClient *messagebroker.NATSClient, processor *MessageProcessor, logger *slog.Logger) *IntakeConsumer {
	return &IntakeConsumer{
		natsClient: natsClient,
		processor:  processor,
		validate:   validator.New(),
		logger:     logger.With("component", "intake_consumer"),
	}
}

// Start subscribes to subject within queueGroup. Message handling runs on the
// NATS delivery goroutine; each message gets its own timeout context.
func (c *IntakeConsumer) Start(ctx context.Context, subject, queueGroup string) error {
	c.logger.Info("Starting intake consumer", "subject", subject, "queue_group", queueGroup)

	handler := func(msg *nats.Msg) {
		intakeReceivedCounter.WithLabelValues(msg.Subject).Inc()

		var dto InboundMessageDTO
		if err := json.Unmarshal(msg.Data, &dto); err != nil {
			c.logger.Error("Failed to unmarshal inbound message", "error", err, "subject", msg.Subject)
			intakeProcessedCounter.WithLabelValues("unknown", "error_decode").Inc()
			return
		}
		if err := c.validate.Struct(dto); err != nil {
			c.logger.Error("Inbound message failed validation", "error", err, "message_id", dto.ID)
			intakeProcessedCounter.WithLabelValues(dto.MessageType, "error_decode").Inc()
			return
		}

		msgCtx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()

		timer := prometheus.NewTimer(intakeProcessingDurationHist.WithLabelValues(dto.MessageType))
		defer timer.ObserveDuration()

		err := c.processor.ProcessAndSendMessage(msgCtx, InboundMessage{
			ID:          dto.ID,
			MessageType: core_domain.MessageType(dto.MessageType),
			Payload:     dto.Payload,
		})
		if err != nil {
			// The inbound transport owns redelivery; nothing to do here but log.
			c.logger.ErrorContext(msgCtx, "Failed to process inbound message", "error", err, "message_id", dto.ID)
		}
	}

	sub, err := c.natsClient.Subscribe(ctx, subject, queueGroup, handler)
	if err != nil {
		return err
	}
	c.sub = sub
	return nil
}

// Stop unsubscribes; in-flight handlers run to completion.
func (c *IntakeConsumer) Stop() {
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil {
			c.logger.Warn("Failed to unsubscribe intake consumer", "error", err)
		}
	}
}
