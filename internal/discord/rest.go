package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultAPIBase = "https://discord.com/api/v10"

// ErrUnknownChannel is returned when Discord reports the channel does not
// exist or is not visible to the bot.
var ErrUnknownChannel = errors.New("unknown channel")

// APIError carries a non-2xx Discord REST response.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord api: status=%d code=%d message=%q", e.Status, e.Code, e.Message)
}

// Client is a minimal Discord REST client covering the surface the bridge
// consumes: gateway discovery, channel lookup, message fetch and send.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient builds a REST client authenticated as a bot.
func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: defaultAPIBase,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// WithBaseURL overrides the API base, used by tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrUnknownChannel, apiErr.Message)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GatewayBot returns the websocket URL the bot should connect to.
func (c *Client) GatewayBot(ctx context.Context) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, "/gateway/bot", nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// Channel fetches a channel by id. A Discord 404 maps to ErrUnknownChannel.
func (c *Client) Channel(ctx context.Context, channelID string) (*Channel, error) {
	var ch Channel
	if err := c.do(ctx, http.MethodGet, "/channels/"+channelID, nil, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// ChannelMessages fetches up to limit messages from a channel, optionally
// anchored before or after a message id.
func (c *Client) ChannelMessages(ctx context.Context, channelID, before, after string, limit int) ([]*Message, error) {
	q := url.Values{}
	if before != "" {
		q.Set("before", before)
	}
	if after != "" {
		q.Set("after", after)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/channels/" + channelID + "/messages"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var msgs []*Message
	if err := c.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// CreateMessage posts content to a channel, optionally as a reply. If the
// referenced message no longer exists, Discord applies its own
// broken-reference behavior; it is not re-validated here.
func (c *Client) CreateMessage(ctx context.Context, channelID, content, replyToID string) (*Message, error) {
	payload := createMessagePayload{Content: content}
	if replyToID != "" {
		payload.MessageReference = &messageReference{MessageID: replyToID}
	}

	var msg Message
	if err := c.do(ctx, http.MethodPost, "/channels/"+channelID+"/messages", payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
