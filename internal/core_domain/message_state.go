package core_domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageType is the domain category of a tracked message.
type MessageType string

const (
	MessageTypeDialog MessageType = "DIALOG"
)

// ProcessingState is the internal lifecycle state of a tracked message.
type ProcessingState string

const (
	StateNew       ProcessingState = "NEW"
	StateProcessed ProcessingState = "PROCESSED"
)

// IsTerminal reports whether no further transitions occur from s.
func (s ProcessingState) IsTerminal() bool {
	return s == StateProcessed
}

// ExternalDeliveryState is the delivery disposition reported by the external
// processing system.
type ExternalDeliveryState string

const (
	DeliveryAcknowledged ExternalDeliveryState = "ACKNOWLEDGED"
	DeliveryUnconfirmed  ExternalDeliveryState = "UNCONFIRMED"
	DeliveryRejected     ExternalDeliveryState = "REJECTED"
)

// AppRecStatus is the external system's disposition on message content
// correctness, distinct from delivery acknowledgment.
type AppRecStatus string

const (
	AppRecOK                   AppRecStatus = "OK"
	AppRecOKErrorInMessagePart AppRecStatus = "OK_ERROR_IN_MESSAGE_PART"
	AppRecRejected             AppRecStatus = "REJECTED"
)

// MessageState is the tracked delivery lifecycle of one dispatched message,
// keyed by the reference id the external system assigned at submission time.
type MessageState struct {
	ID                    uuid.UUID              `json:"id"`
	ExternalRefID         string                 `json:"external_ref_id"`
	MessageType           MessageType            `json:"message_type"`
	CurrentState          ProcessingState        `json:"current_state"`
	ExternalDeliveryState *ExternalDeliveryState `json:"external_delivery_state,omitempty"`
	AppRecStatus          *AppRecStatus          `json:"app_rec_status,omitempty"`
	ExternalMessageURL    string                 `json:"external_message_url"`
	LastStateChange       time.Time              `json:"last_state_change"`
	LastPolledAt          *time.Time             `json:"last_polled_at,omitempty"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
}

// HasResolvedStatus reports whether the stored delivery state and app-rec
// status already equal the given resolved pair. Used to suppress duplicate
// terminal processing on re-polls.
func (m *MessageState) HasResolvedStatus(delivery ExternalDeliveryState, appRec AppRecStatus) bool {
	return m.ExternalDeliveryState != nil && *m.ExternalDeliveryState == delivery &&
		m.AppRecStatus != nil && *m.AppRecStatus == appRec
}

// MessageStateHistory is one append-only row per accepted transition. The
// creation baseline is recorded with OldState == NewState.
type MessageStateHistory struct {
	ID         uuid.UUID       `json:"id"`
	MessageID  uuid.UUID       `json:"message_id"`
	OldState   ProcessingState `json:"old_state"`
	NewState   ProcessingState `json:"new_state"`
	OccurredAt time.Time       `json:"occurred_at"`
}
