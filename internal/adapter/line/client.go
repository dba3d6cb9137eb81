// Package line pushes messages through the LINE Messaging API.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultEndpoint is the push message API.
const DefaultEndpoint = "https://api.line.me/v2/bot/message/push"

const maxErrorBody = 512

// ErrNotConfigured is returned when the access token or destination is missing.
var ErrNotConfigured = errors.New("line: access token or target ID not found")

// Message is one LINE message object. Flex messages carry their bubble in Contents.
type Message struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	AltText  string `json:"altText,omitempty"`
	Contents any    `json:"contents,omitempty"`
}

type pushRequest struct {
	To       string    `json:"to"`
	Messages []Message `json:"messages"`
}

// Client calls the push API with a channel access token.
type Client struct {
	token      string
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a push client. An empty endpoint selects DefaultEndpoint.
func NewClient(token, endpoint string, timeout time.Duration, logger *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		token:      token,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "line"),
	}
}

// Push sends messages to a user, group or room. Any non-2xx status is an error.
func (c *Client) Push(ctx context.Context, to string, messages ...Message) error {
	if c.token == "" || to == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(pushRequest{To: to, Messages: messages})
	if err != nil {
		return fmt.Errorf("line: encode push: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("line: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("line: push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("line: push: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	c.logger.Debug("message pushed", "messages", len(messages))
	return nil
}
