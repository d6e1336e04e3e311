// Package ticktick is a small client for the TickTick habit endpoints.
package ticktick

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/julianstephens/habitcast/internal/constants"
	apperrors "github.com/julianstephens/habitcast/internal/errors"
	"github.com/julianstephens/habitcast/internal/logger"
	"github.com/julianstephens/habitcast/internal/models"
)

// APIError is a non-2xx answer from TickTick.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if body == "" {
		body = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("TickTick %s failed (%d): %s", e.Endpoint, e.StatusCode, body)
}

// ServerError reports whether the failure came from TickTick itself (5xx).
func (e *APIError) ServerError() bool {
	return e.StatusCode >= constants.NotifyStatusFloor
}

type Client struct {
	baseURL     string
	accessToken string
	cookie      string
	http        *http.Client
}

type Option func(*Client)

// WithBaseURL points the client at another host (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithCookie sends the web session cookie used by the private v2 endpoints.
func WithCookie(cookie string) Option {
	return func(c *Client) { c.cookie = cookie }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client. Either accessToken or a cookie must authenticate
// the requests; an empty token sends no Authorization header.
func New(accessToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:     constants.TickTickBaseURL,
		accessToken: accessToken,
		http:        &http.Client{Timeout: constants.HTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Origin", constants.TickTickOrigin)
	req.Header.Set("User-Agent", constants.BrowserUserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	return req, nil
}

// do sends req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request, endpoint string) ([]byte, int, error) {
	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("TickTick %s request failed: %w", endpoint, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, res.StatusCode, fmt.Errorf("failed to read TickTick %s response: %w", endpoint, err)
	}
	logger.Debug("TickTick request", "endpoint", endpoint, "status", res.StatusCode, "duration", time.Since(start))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return body, res.StatusCode, &APIError{Endpoint: endpoint, StatusCode: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, res.StatusCode, nil
}

// ListHabits returns every habit on the account.
func (c *Client) ListHabits(ctx context.Context) ([]models.Habit, error) {
	req, err := c.newRequest(ctx, http.MethodGet, constants.TickTickHabitsPath, nil, nil)
	if err != nil {
		return nil, err
	}
	body, _, err := c.do(req, "habits")
	if err != nil {
		return nil, err
	}

	var habits []models.Habit
	if err := json.Unmarshal(body, &habits); err != nil {
		return nil, &apperrors.ValidationError{Source: "habit list response", Reason: "expected a JSON array of habits"}
	}
	return habits, nil
}

// FetchCheckin returns the check-in for one habit on day, or nil when the
// habit is unknown or has no entries. When no entry carries the exact date
// the first entry returned is used.
func (c *Client) FetchCheckin(ctx context.Context, habitID string, day time.Time) (*models.CheckinEntry, error) {
	date := day.Format(constants.DateFormat)
	query := url.Values{"from": {date}, "to": {date}}
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf(constants.TickTickCheckinsPath, url.PathEscape(habitID)), query, nil)
	if err != nil {
		return nil, err
	}

	body, status, err := c.do(req, "habit check-ins")
	if status == http.StatusNotFound {
		logger.Warn("Habit not found when fetching check-ins", "habit", habitID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var payload struct {
		Checkins []models.CheckinEntry `json:"checkins"`
		Data     []models.CheckinEntry `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &apperrors.ValidationError{Source: "habit check-ins response", Reason: err.Error()}
	}
	entries := payload.Checkins
	if len(entries) == 0 {
		entries = payload.Data
	}
	if len(entries) == 0 {
		return nil, nil
	}

	target := models.StampOf(day)
	chosen := entries[0]
	for _, e := range entries {
		if e.HasStamp && e.Stamp == target {
			chosen = e
			break
		}
	}
	if chosen.HabitID == "" {
		chosen.HabitID = habitID
	}
	return &chosen, nil
}

type queryRequest struct {
	HabitIDs   []string `json:"habitIds"`
	AfterStamp int      `json:"afterStamp"`
}

// QueryCheckins fetches check-ins after the given stamp for every habit id in
// one request. The result is keyed by the habit ids TickTick returns.
func (c *Client) QueryCheckins(ctx context.Context, habitIDs []string, after models.Stamp) (map[string][]models.CheckinEntry, error) {
	logger.Info("Querying TickTick habit check-ins", "habits", len(habitIDs), "after", after)

	req, err := c.newRequest(ctx, http.MethodPost, constants.TickTickQueryPath, nil, queryRequest{
		HabitIDs:   habitIDs,
		AfterStamp: int(after),
	})
	if err != nil {
		return nil, err
	}
	body, _, err := c.do(req, "habitCheckins/query")
	if err != nil {
		return nil, err
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &apperrors.ValidationError{Source: "check-in query response", Reason: "expected a JSON object"}
	}
	raw, ok := envelope["checkins"]
	if !ok || !isObject(raw) {
		return nil, &apperrors.ValidationError{Source: "check-in query response", Field: "checkins", Reason: "object missing"}
	}

	var byHabit map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byHabit); err != nil {
		return nil, &apperrors.ValidationError{Source: "check-in query response", Field: "checkins", Reason: err.Error()}
	}

	out := make(map[string][]models.CheckinEntry, len(byHabit))
	for id, list := range byHabit {
		entries := []models.CheckinEntry{}
		if !isNull(list) {
			if err := json.Unmarshal(list, &entries); err != nil {
				return nil, &apperrors.ValidationError{Source: "check-in query response", Field: "checkins." + id, Reason: "is not a list of check-ins"}
			}
		}
		for i := range entries {
			if entries[i].HabitID == "" {
				entries[i].HabitID = id
			}
		}
		out[id] = entries
	}
	return out, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
