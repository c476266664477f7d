package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HTTPDispatcher submits messages to the external processing system over its
// JSON HTTP API.
type HTTPDispatcher struct {
	logger     *slog.Logger
	httpClient *http.Client
	apiURL     string
	apiKey     string
}

func NewHTTPDispatcher(logger *slog.Logger, apiURL, apiKey string, httpClient *http.Client) *HTTPDispatcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPDispatcher{
		logger:     logger.With("dispatcher", "http"),
		httpClient: httpClient,
		apiURL:     apiURL,
		apiKey:     apiKey,
	}
}

type submitRequestBody struct {
	ID          string `json:"id"`
	MessageType string `json:"messageType"`
	Payload     []byte `json:"payload"` // base64 over the wire
}

type submitResponseBody struct {
	Metadata *SubmissionReceipt `json:"metadata,omitempty"`
	Error    *SubmissionError   `json:"error,omitempty"`
}

func (d *HTTPDispatcher) GetName() string { return "http" }

func (d *HTTPDispatcher) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	d.logger.InfoContext(ctx, "Submitting message to external system",
		"message_id", req.MessageID, "message_type", req.MessageType, "payload_len", len(req.Payload))

	body, err := json.Marshal(submitRequestBody{
		ID:          req.MessageID,
		MessageType: string(req.MessageType),
		Payload:     req.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal submit request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.apiURL+"/messages", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create submit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	httpResp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("submit message: %w", err)
	}
	defer httpResp.Body.Close()

	respBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read submit response: %w", err)
	}

	var resp submitResponseBody
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("decode submit response (status %d): %w", httpResp.StatusCode, err)
	}

	if resp.Error != nil {
		d.logger.WarnContext(ctx, "External system reported submission error",
			"message_id", req.MessageID, "code", resp.Error.Code, "error_message", resp.Error.Message,
			"request_id", resp.Error.RequestID)
	}
	return &SubmitResult{Receipt: resp.Metadata, Error: resp.Error}, nil
}
