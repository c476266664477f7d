package provider

import (
	"context"

	"github.com/meldeo/dialog-status-tracker/internal/core_domain"
)

// SubmitRequest holds what the external processing system needs to accept a
// message for delivery.
type SubmitRequest struct {
	MessageID   string
	MessageType core_domain.MessageType
	Payload     []byte
}

// SubmissionReceipt is the metadata the external system assigns on a
// successful submission.
type SubmissionReceipt struct {
	ID       string `json:"id"`
	Location string `json:"location"`
}

// SubmissionError is the structured error the external system returns when a
// submission is not accepted.
type SubmissionError struct {
	Message          string   `json:"message"`
	Code             string   `json:"code"`
	ValidationErrors []string `json:"validationErrors,omitempty"`
	Diagnostic       string   `json:"diagnostic,omitempty"`
	RequestID        string   `json:"requestId,omitempty"`
}

// SubmitResult carries the external system's response: an optional receipt and
// an optional error. Callers must treat a result carrying an error as a failed
// submission even when a receipt accompanies it.
type SubmitResult struct {
	Receipt *SubmissionReceipt
	Error   *SubmissionError
}

// MessageDispatcher sends messages to the external processing system. A
// returned Go error means the submission outcome is unknown (transport
// failure); a SubmitResult means the external system answered.
type MessageDispatcher interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
	GetName() string
}
