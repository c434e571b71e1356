package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/CarbonSMASH/push-relay/errors"
	"github.com/CarbonSMASH/push-relay/types"
	"go.uber.org/zap"
)

const (
	// ExpoPushURL is the Expo Push API endpoint
	ExpoPushURL = "https://exp.host/--/api/v2/push/send"

	// HTTP client timeout
	defaultPushTimeout = 30 * time.Second
)

// PushDispatcher fans a notification out to every delivery token bound
// to a device via the Expo push network.
type PushDispatcher interface {
	// Dispatch builds one message per token, submits the whole batch in a
	// single upstream request, and returns the network's acknowledgment
	// body verbatim. The relay never interprets per-token outcomes and
	// never retries; retry policy belongs to the desktop caller.
	Dispatch(ctx context.Context, record *types.DeviceRecord, title, body string, data map[string]interface{}) (json.RawMessage, error)
}

// ExpoMessage is the Expo push API message format.
type ExpoMessage struct {
	To       string                 `json:"to"`
	Title    string                 `json:"title,omitempty"`
	Body     string                 `json:"body,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
	Sound    string                 `json:"sound,omitempty"`
	Priority string                 `json:"priority,omitempty"`
}

// expoDispatcher implements PushDispatcher against the Expo push API.
type expoDispatcher struct {
	pushURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// DispatcherOption configures the dispatcher.
type DispatcherOption func(*expoDispatcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) DispatcherOption {
	return func(d *expoDispatcher) {
		d.httpClient = client
	}
}

// NewExpoDispatcher creates a PushDispatcher targeting pushURL. An empty
// pushURL falls back to the public Expo endpoint.
func NewExpoDispatcher(pushURL string, timeout time.Duration, log *zap.Logger, opts ...DispatcherOption) PushDispatcher {
	if pushURL == "" {
		pushURL = ExpoPushURL
	}
	if timeout <= 0 {
		timeout = defaultPushTimeout
	}

	d := &expoDispatcher{
		pushURL: pushURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.Named("ExpoDispatcher"),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Dispatch sends one batched request carrying an identical payload per token.
func (d *expoDispatcher) Dispatch(ctx context.Context, record *types.DeviceRecord, title, body string, data map[string]interface{}) (json.RawMessage, error) {
	messages := make([]ExpoMessage, 0, len(record.Tokens))
	for _, token := range record.Tokens {
		messages = append(messages, ExpoMessage{
			To:       token,
			Title:    title,
			Body:     body,
			Data:     data,
			Sound:    "default",
			Priority: "high",
		})
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return nil, apperrors.UpstreamUnavailable(fmt.Errorf("marshal messages: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.pushURL, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.UpstreamUnavailable(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.Warn("Push network unreachable", zap.Error(err))
		return nil, apperrors.UpstreamUnavailable(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.UpstreamUnavailable(fmt.Errorf("read response: %w", err))
	}

	// The ack is relayed verbatim, so the only requirement is that it is
	// well-formed JSON.
	if !json.Valid(respBody) {
		d.logger.Warn("Push network returned non-JSON response",
			zap.Int("statusCode", resp.StatusCode))
		return nil, apperrors.UpstreamUnavailable(fmt.Errorf("non-JSON response (status %d)", resp.StatusCode))
	}

	d.logTickets(respBody, len(messages))

	return json.RawMessage(respBody), nil
}

// logTickets logs batch-level delivery counts without interpreting them.
// Tokens never appear unmasked in log output.
func (d *expoDispatcher) logTickets(respBody []byte, messageCount int) {
	var ack struct {
		Data []struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &ack); err != nil {
		return
	}

	var okCount, errCount int
	for _, ticket := range ack.Data {
		if ticket.Status == "ok" {
			okCount++
		} else {
			errCount++
		}
	}

	d.logger.Info("Push batch dispatched",
		zap.Int("messages", messageCount),
		zap.Int("tickets", len(ack.Data)),
		zap.Int("ok", okCount),
		zap.Int("errors", errCount))
}
