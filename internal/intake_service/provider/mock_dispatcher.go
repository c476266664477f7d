package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// MockDispatcher is a test implementation of MessageDispatcher.
type MockDispatcher struct {
	logger         *slog.Logger
	FailSubmit     bool // makes Submit return a structured submission error
	SimulatedDelay time.Duration
}

func NewMockDispatcher(logger *slog.Logger, failSubmit bool, delay time.Duration) *MockDispatcher {
	return &MockDispatcher{
		logger:         logger.With("dispatcher", "mock"),
		FailSubmit:     failSubmit,
		SimulatedDelay: delay,
	}
}

func (d *MockDispatcher) GetName() string { return "mock" }

func (d *MockDispatcher) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	d.logger.InfoContext(ctx, "MockDispatcher: Submit called",
		"message_id", req.MessageID, "message_type", req.MessageType)

	if d.SimulatedDelay > 0 {
		time.Sleep(d.SimulatedDelay)
	}

	if d.FailSubmit {
		return &SubmitResult{
			Error: &SubmissionError{
				Message:   "mock dispatcher simulated submission failure",
				Code:      "MOCK_FAILURE",
				RequestID: uuid.NewString(),
			},
		}, nil
	}

	refID := "mock-" + uuid.NewString()
	return &SubmitResult{
		Receipt: &SubmissionReceipt{
			ID:       refID,
			Location: fmt.Sprintf("https://mock.invalid/messages/%s", refID),
		},
	}, nil
}
