package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/af-corp/shipsense/internal/config"
	"github.com/go-resty/resty/v2"
)

const (
	channelPageSize = "1000"
	maxChannelPages = 10
)

// ErrChannelNotFound is returned when a channel name matches nothing the bot can see.
var ErrChannelNotFound = errors.New("channel not found")

var channelID = regexp.MustCompile(`^[CD][A-Z0-9]+$`)

// APIError is a failed Web API call. Slack reports most failures as
// 200 with ok=false, so Code carries its error string when StatusCode is 200.
type APIError struct {
	Method     string
	StatusCode int
	Code       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("slack %s failed: %s", e.Method, e.Code)
	}
	return fmt.Sprintf("slack %s failed with status %d", e.Method, e.StatusCode)
}

type apiReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type channelsReply struct {
	apiReply
	Channels []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"channels"`
	ResponseMetadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

// Message is a chat.postMessage payload. ThreadTS replies in a thread.
type Message struct {
	Channel  string `json:"channel"`
	Text     string `json:"text"`
	ThreadTS string `json:"thread_ts,omitempty"`
}

// Client calls the Slack Web API with the bot token.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

func NewClient(cfg config.SlackConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	hc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetAuthToken(cfg.BotToken)
	return &Client{http: hc, logger: logger}
}

// ResolveChannel returns channel unchanged when it already looks like a
// channel or DM ID. Otherwise it pages through conversations.list and
// matches the name case-insensitively, with or without a leading '#'.
func (c *Client) ResolveChannel(ctx context.Context, channel string) (string, error) {
	if channelID.MatchString(channel) {
		return channel, nil
	}
	name := strings.TrimSpace(strings.TrimPrefix(channel, "#"))

	cursor := ""
	for page := 0; page < maxChannelPages; page++ {
		var out channelsReply
		req := c.http.R().
			SetContext(ctx).
			SetResult(&out).
			SetQueryParam("limit", channelPageSize).
			SetQueryParam("types", "public_channel,private_channel")
		if cursor != "" {
			req.SetQueryParam("cursor", cursor)
		}
		resp, err := req.Get("/conversations.list")
		if err != nil {
			return "", fmt.Errorf("slack conversations.list: %w", err)
		}
		if err := check("conversations.list", resp, out.apiReply); err != nil {
			return "", err
		}
		for _, ch := range out.Channels {
			if strings.EqualFold(ch.Name, name) {
				return ch.ID, nil
			}
		}
		cursor = out.ResponseMetadata.NextCursor
		if cursor == "" {
			break
		}
	}
	return "", fmt.Errorf("%w: %s", ErrChannelNotFound, channel)
}

// PostMessage resolves msg.Channel and posts the message.
func (c *Client) PostMessage(ctx context.Context, msg Message) error {
	id, err := c.ResolveChannel(ctx, msg.Channel)
	if err != nil {
		return err
	}
	msg.Channel = id

	var out apiReply
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json; charset=utf-8").
		SetBody(msg).
		SetResult(&out).
		Post("/chat.postMessage")
	if err != nil {
		return fmt.Errorf("slack chat.postMessage: %w", err)
	}
	if err := check("chat.postMessage", resp, out); err != nil {
		return err
	}
	c.logger.Debug("slack message posted", "channel", id, "threaded", msg.ThreadTS != "")
	return nil
}

func check(method string, resp *resty.Response, reply apiReply) error {
	if resp.IsError() {
		return &APIError{Method: method, StatusCode: resp.StatusCode()}
	}
	if !reply.OK {
		code := reply.Error
		if code == "" {
			code = "unknown_error"
		}
		return &APIError{Method: method, StatusCode: resp.StatusCode(), Code: code}
	}
	return nil
}
