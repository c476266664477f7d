package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/meldeo/dialog-status-tracker/internal/core_domain"
	"github.com/meldeo/dialog-status-tracker/internal/statestore"
	"github.com/meldeo/dialog-status-tracker/internal/status_poller_service/provider"
)

// PollerConfig holds configuration specific to the StatusPoller.
type PollerConfig struct {
	PollingInterval time.Duration `mapstructure:"POLLING_INTERVAL"`
	BatchSize       int           `mapstructure:"POLL_BATCH_SIZE"`
}

// StatusPoller reconciles tracked messages against the external system's
// status and publishes the terminal outcome exactly once per message.
type StatusPoller struct {
	store        statestore.StateStore
	statusClient provider.StatusClient
	publisher    OutcomePublisher
	logger       *slog.Logger
	config       PollerConfig
}

func NewStatusPoller(
	store statestore.StateStore,
	statusClient provider.StatusClient,
	publisher OutcomePublisher,
	logger *slog.Logger,
	cfg PollerConfig,
) *StatusPoller {
	return &StatusPoller{
		store:        store,
		statusClient: statusClient,
		publisher:    publisher,
		logger:       logger.With("component", "status_poller"),
		config:       cfg,
	}
}

// PollOnce runs one batch cycle: select pollable messages and process each.
// A failure on one message never aborts the rest of the batch; the first
// error is returned for visibility after the batch completes.
func (p *StatusPoller) PollOnce(ctx context.Context) (processed int, firstErr error) {
	pollCyclesCounter.Inc()
	timer := prometheus.NewTimer(pollCycleDurationHist)
	defer timer.ObserveDuration()

	pollable, err := p.store.FindForPolling(ctx, p.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("select pollable messages: %w", err)
	}
	if len(pollable) == 0 {
		p.logger.DebugContext(ctx, "No pollable messages in this cycle")
		return 0, nil
	}

	p.logger.InfoContext(ctx, "Polling batch of messages", "count", len(pollable))
	for _, state := range pollable {
		if err := p.PollAndProcessMessage(ctx, state); err != nil {
			p.logger.ErrorContext(ctx, "Failed to process message poll",
				"error", err, "external_ref_id", state.ExternalRefID)
			messagesPolledCounter.WithLabelValues("error").Inc()
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		processed++
	}
	return processed, firstErr
}

// PollAndProcessMessage reconciles one tracked message:
//
//   - Pending: only the poll timestamp is refreshed.
//   - Unresolvable: same as pending; the contradiction may resolve later.
//   - Resolved (acknowledged or rejected): if the transition to PROCESSED is
//     legal and the resolved pair differs from what is stored, commit the
//     transactional update and publish the outcome exactly once. Otherwise a
//     no-op poll: refresh the timestamp and never publish again.
func (p *StatusPoller) PollAndProcessMessage(ctx context.Context, state *core_domain.MessageState) error {
	status, err := p.statusClient.QueryStatus(ctx, state.ExternalRefID)
	if err != nil {
		return fmt.Errorf("query external status: %w", err)
	}

	now := time.Now().UTC()
	cls := core_domain.Evaluate(status.DeliveryState, status.AppRecStatus)
	messagesPolledCounter.WithLabelValues(cls.Kind.String()).Inc()

	if !cls.Resolved() {
		if cls.Kind == core_domain.ClassificationUnresolvable {
			p.logger.WarnContext(ctx, "Contradictory external status, leaving message for a later poll",
				"external_ref_id", state.ExternalRefID, "delivery_state", status.DeliveryState)
		}
		return p.store.MarkPolled(ctx, state.ExternalRefID, now)
	}

	legal := core_domain.IsLegalTransition(state.CurrentState, core_domain.StateProcessed)
	if !legal || state.HasResolvedStatus(cls.DeliveryState, cls.AppRecStatus) {
		// Stale snapshot or an outcome already recorded: no state change and,
		// critically, no second publish.
		return p.store.MarkPolled(ctx, state.ExternalRefID, now)
	}

	delivery := cls.DeliveryState
	appRec := cls.AppRecStatus
	updated, err := p.store.UpdateState(ctx, state.MessageType, core_domain.StateProcessed,
		state.ExternalRefID, &delivery, &appRec, now)
	if err != nil {
		return fmt.Errorf("commit state transition: %w", err)
	}

	p.logger.InfoContext(ctx, "Message reached terminal state",
		"external_ref_id", updated.ExternalRefID, "delivery_state", delivery, "app_rec_status", appRec)

	// Publish after commit, outside the transaction. A failure here is logged
	// and surfaced but not retried: the committed transition guards against a
	// duplicate publish on the next poll.
	event := core_domain.MessageOutcomeEvent{ReferenceID: updated.ExternalRefID, AppRecStatus: appRec}
	if err := p.publisher.PublishOutcome(ctx, event); err != nil {
		return fmt.Errorf("publish outcome for %s: %w", updated.ExternalRefID, err)
	}
	outcomesPublishedCounter.WithLabelValues(string(appRec)).Inc()
	return nil
}
