package core_domain

// NATS subjects used between the tracker services and their collaborators.
const (
	// NATSDialogInboundV1 carries inbound messages to register and dispatch.
	NATSDialogInboundV1 = "tracking.dialog.inbound.v1"
	// NATSMessageOutcomeV1 carries terminal outcome events, one per message.
	NATSMessageOutcomeV1 = "tracking.message.outcome.v1"
)

// MessageOutcomeEvent is published exactly once when a tracked message reaches
// its terminal state.
type MessageOutcomeEvent struct {
	ReferenceID  string       `json:"referenceId"`
	AppRecStatus AppRecStatus `json:"appRecStatus"`
}
