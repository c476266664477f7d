package statestore

import (
	"context"
	"errors"
	"time"

	"github.com/meldeo/dialog-status-tracker/internal/core_domain"
)

// ErrStateNotFound is returned when an update targets a reference id that was
// never registered.
var ErrStateNotFound = errors.New("message state not found")

// DefaultPollBatchSize bounds FindForPolling when callers pass a non-positive
// limit.
const DefaultPollBatchSize = 100

// StateStore persists the current state and append-only transition history of
// tracked messages. State and history writes for one message are committed in
// a single atomic unit; a partial write is never observable.
type StateStore interface {
	// CreateState registers a message in its initial state, appending a
	// baseline history row with old state == new state. Calling it again for
	// an existing reference id behaves as UpdateState and leaves the original
	// message URL untouched (upsert).
	CreateState(ctx context.Context, msgType core_domain.MessageType, state core_domain.ProcessingState, externalRefID, messageURL string, occurredAt time.Time) (*core_domain.MessageState, error)

	// UpdateState sets the current state together with the resolved delivery
	// state / app-rec status pair (both or neither), records the transition in
	// history and refreshes LastStateChange and LastPolledAt. Returns
	// ErrStateNotFound if the reference id is unknown.
	UpdateState(ctx context.Context, msgType core_domain.MessageType, newState core_domain.ProcessingState, externalRefID string, delivery *core_domain.ExternalDeliveryState, appRec *core_domain.AppRecStatus, occurredAt time.Time) (*core_domain.MessageState, error)

	// FindOrNull is a point lookup; absence is (nil, nil), not an error.
	FindOrNull(ctx context.Context, externalRefID string) (*core_domain.MessageState, error)

	// FindForPolling returns up to limit messages eligible for a status
	// recheck: current state NEW and either never polled or last polled at or
	// before now minus the configured threshold.
	FindForPolling(ctx context.Context, limit int) ([]*core_domain.MessageState, error)

	// MarkPolled refreshes LastPolledAt without touching state or history.
	MarkPolled(ctx context.Context, externalRefID string, occurredAt time.Time) error
}
