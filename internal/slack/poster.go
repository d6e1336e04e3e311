// Package slack delivers messages through the chat.postMessage Web API.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	slackapi "github.com/slack-go/slack"

	"github.com/julianstephens/habitcast/internal/constants"
	"github.com/julianstephens/habitcast/internal/logger"
)

// APIError is a chat.postMessage answer without "ok": true.
type APIError struct {
	Channel    string
	StatusCode int
	Code       string
	Body       string
}

func (e *APIError) Error() string {
	reason := e.Code
	if reason == "" {
		reason = e.Body
	}
	return fmt.Sprintf("Slack API error for channel %s (%d): %s", e.Channel, e.StatusCode, reason)
}

type Message struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type Poster struct {
	token   string
	baseURL string
	dryRun  bool
	http    *http.Client
	api     *slackapi.Client
}

type Option func(*Poster)

func WithBaseURL(u string) Option {
	return func(p *Poster) { p.baseURL = strings.TrimRight(u, "/") }
}

// WithDryRun logs payloads instead of sending them.
func WithDryRun(dryRun bool) Option {
	return func(p *Poster) { p.dryRun = dryRun }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(p *Poster) { p.http = hc }
}

func NewPoster(token string, opts ...Option) *Poster {
	p := &Poster{
		token:   token,
		baseURL: constants.SlackBaseURL,
		http:    &http.Client{Timeout: constants.HTTPTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	// the client joins endpoints onto the API URL, so it needs the slash
	p.api = slackapi.New(token,
		slackapi.OptionAPIURL(p.baseURL+"/"),
		slackapi.OptionHTTPClient(p.http),
	)
	return p
}

// DryRun reports whether messages are only logged.
func (p *Poster) DryRun() bool {
	return p.dryRun
}

// PostMessage sends text to channel in a single request.
func (p *Poster) PostMessage(ctx context.Context, channel, text string) error {
	return p.Post(ctx, Message{Channel: channel, Text: text})
}

func (p *Poster) Post(ctx context.Context, msg Message) error {
	if p.dryRun {
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		logger.Info("[dry-run] Would post to Slack", "channel", msg.Channel, "payload", string(payload))
		return nil
	}

	_, ts, err := p.api.PostMessageContext(ctx, msg.Channel, slackapi.MsgOptionText(msg.Text, false))
	if err != nil {
		return apiError(msg.Channel, err)
	}

	logger.Debug("Posted message to Slack", "channel", msg.Channel, "ts", ts)
	return nil
}

func apiError(channel string, err error) error {
	var slackErr slackapi.SlackErrorResponse
	if errors.As(err, &slackErr) {
		return &APIError{Channel: channel, StatusCode: http.StatusOK, Code: slackErr.Err}
	}
	var statusErr slackapi.StatusCodeError
	if errors.As(err, &statusErr) {
		return &APIError{Channel: channel, StatusCode: statusErr.Code, Body: statusErr.Status}
	}
	return fmt.Errorf("Slack request for channel %s failed: %w", channel, err)
}
