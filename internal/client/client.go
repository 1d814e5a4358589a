// Package client is a typed HTTP client for the ZeroDeadline API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/zerodeadline/internal/adapters/calendar"
	"github.com/okian/zerodeadline/internal/adapters/llm"
	service "github.com/okian/zerodeadline/internal/app"
	"github.com/okian/zerodeadline/internal/domain/model"
)

// DefaultTimeout bounds each request. Advice may wait on several model
// attempts, so it is generous.
const DefaultTimeout = 2 * time.Minute

// Client talks to one server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// New returns a client for baseURL, e.g. "http://localhost:9080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dashboard evaluates and records the current risk.
func (c *Client) Dashboard(ctx context.Context) (service.Dashboard, error) {
	var d service.Dashboard
	err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, &d)
	return d, err
}

// History lists the recorded risk history.
func (c *Client) History(ctx context.Context) ([]model.RiskHistoryEntry, error) {
	var resp struct {
		Entries []model.RiskHistoryEntry `json:"entries"`
	}
	err := c.do(ctx, http.MethodGet, "/api/history", nil, &resp)
	return resp.Entries, err
}

// Schedules lists schedule items ordered by deadline.
func (c *Client) Schedules(ctx context.Context) ([]service.ScheduleView, error) {
	var views []service.ScheduleView
	err := c.do(ctx, http.MethodGet, "/api/schedules", nil, &views)
	return views, err
}

// AddSchedule stores a schedule item.
func (c *Client) AddSchedule(ctx context.Context, item model.ScheduleItem) (model.ScheduleItem, error) {
	var stored model.ScheduleItem
	err := c.do(ctx, http.MethodPost, "/api/schedules", item, &stored)
	return stored, err
}

// DeleteSchedule removes the item at a stored index.
func (c *Client) DeleteSchedule(ctx context.Context, index int) (model.ScheduleItem, error) {
	var removed model.ScheduleItem
	err := c.do(ctx, http.MethodDelete, "/api/schedules/"+strconv.Itoa(index), nil, &removed)
	return removed, err
}

// StressAck acknowledges a posted sample.
type StressAck struct {
	Status    string             `json:"status"`
	Duplicate bool               `json:"duplicate"`
	Sample    model.StressSample `json:"sample"`
}

// RecordStress posts a sample. An empty id lets the server assign one.
func (c *Client) RecordStress(ctx context.Context, id string, value float64) (StressAck, error) {
	var ack StressAck
	body := map[string]any{"stress": value}
	if id != "" {
		body["id"] = id
	}
	err := c.do(ctx, http.MethodPost, "/api/stress", body, &ack)
	return ack, err
}

// StressTrend fetches the trend for period (day, week or month).
func (c *Client) StressTrend(ctx context.Context, period string) (service.TrendReport, error) {
	var report service.TrendReport
	path := "/api/stress/trend?period=" + url.QueryEscape(period)
	err := c.do(ctx, http.MethodGet, path, nil, &report)
	return report, err
}

// Advise requests an improvement plan.
func (c *Client) Advise(ctx context.Context, userContext string) (service.Advice, error) {
	var advice service.Advice
	err := c.do(ctx, http.MethodPost, "/api/advice", map[string]string{"context": userContext}, &advice)
	return advice, err
}

// ChatReply is the server's answer to a chat turn. Error is set when the
// model failed and the last turn is an apology.
type ChatReply struct {
	History llm.Conversation `json:"history"`
	Error   string           `json:"error,omitempty"`
}

// Chat sends question with the transcript so far.
func (c *Client) Chat(ctx context.Context, history llm.Conversation, question string) (ChatReply, error) {
	var reply ChatReply
	body := struct {
		History  llm.Conversation `json:"history"`
		Question string           `json:"question"`
	}{history, question}
	err := c.do(ctx, http.MethodPost, "/api/chat", body, &reply)
	return reply, err
}

// CalendarEvents lists upcoming events.
func (c *Client) CalendarEvents(ctx context.Context) ([]calendar.Event, error) {
	var events []calendar.Event
	err := c.do(ctx, http.MethodGet, "/api/calendar", nil, &events)
	return events, err
}

// do sends body as JSON and decodes a 2xx response into out. Non-2xx
// responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrRequest, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrRequest, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &e) == nil {
			apiErr.Code, apiErr.Message = e.Code, e.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
