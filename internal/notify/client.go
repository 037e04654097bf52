package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the Telegram Bot API prefix; the credential is appended
// directly to it.
const DefaultBaseURL = "https://api.telegram.org/bot"

// maxErrorBody caps how much of a rejection body is kept as detail.
const maxErrorBody = 4 << 10

// Client talks to the Telegram Bot API.
type Client struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// HTTP defaults to a client with a 10s timeout.
	HTTP *http.Client
}

// NewClient returns a Client with the given base URL and transport timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) base() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return &http.Client{Timeout: 10 * time.Second}
	}
	return c.HTTP
}

func (c *Client) endpoint(credential, method string) string {
	return c.base() + credential + "/" + method
}

// CheckLiveness issues one getMe request for credential. Any 2xx reports
// true; any other status reports false. A request that gets no response at
// all returns an error wrapping ErrTransport.
func (c *Client) CheckLiveness(ctx context.Context, credential string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(credential, "getMe"), nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrTransport, redact(err, credential))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Send posts text to cfg.Destination. It returns nil on any 2xx and a
// *DeliveryError otherwise.
func (c *Client) Send(ctx context.Context, cfg Config, text string) error {
	payload, err := json.Marshal(sendMessageRequest{ChatID: cfg.Destination, Text: text})
	if err != nil {
		return &DeliveryError{State: StateTransportFailed, Reason: ReasonTransport, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(cfg.Credential, "sendMessage"), bytes.NewReader(payload))
	if err != nil {
		return &DeliveryError{State: StateTransportFailed, Reason: ReasonTransport, Err: fmt.Errorf("%w: %v", ErrTransport, err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return &DeliveryError{
			State:  StateTransportFailed,
			Reason: ReasonTransport,
			Err:    fmt.Errorf("%w: %v", ErrTransport, redact(err, cfg.Credential)),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &DeliveryError{
			State:  StateRejected,
			Reason: ReasonResponseUnreadable,
			Status: resp.StatusCode,
			Err:    err,
		}
	}
	return &DeliveryError{
		State:  StateRejected,
		Reason: ReasonRejected,
		Status: resp.StatusCode,
		Detail: describe(body),
	}
}

// describe extracts Telegram's "description" field, falling back to the raw
// body when it is not the usual {"ok":false,...} envelope.
func describe(body []byte) string {
	var env struct {
		Description string `json:"description"`
	}
	if json.Unmarshal(body, &env) == nil && env.Description != "" {
		return env.Description
	}
	return strings.TrimSpace(string(body))
}

// redact removes the bot credential from transport errors, which embed the
// request URL.
func redact(err error, credential string) string {
	msg := err.Error()
	if credential == "" {
		return msg
	}
	return strings.ReplaceAll(msg, credential, "<redacted>")
}
