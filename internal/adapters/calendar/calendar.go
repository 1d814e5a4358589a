// Package calendar reads upcoming events from Google Calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/zerodeadline/pkg/logger"
	"github.com/okian/zerodeadline/pkg/metrics"
	"github.com/okian/zerodeadline/pkg/retry"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Defaults for the event window.
const (
	DefaultWindow     = 14 * 24 * time.Hour
	DefaultMaxResults = 200
	Untitled          = "(untitled)"
	primaryCalendar   = "primary"
)

// ErrNotConfigured is returned when no credentials are configured.
var ErrNotConfigured = errors.New("calendar is not configured")

// Event is one upcoming calendar entry. Start is an RFC 3339 timestamp or,
// for all-day events, a YYYY-MM-DD date.
type Event struct {
	Start   string `json:"start"`
	Summary string `json:"summary"`
}

// Fetcher lists upcoming events.
type Fetcher interface {
	FetchEvents(ctx context.Context) ([]Event, error)
}

// Config configures Google.
type Config struct {
	CredentialsFile string
	Window          time.Duration
	MaxResults      int64
	Location        *time.Location
	Retry           retry.Policy
	Logger          logger.Logger
	Now             func() time.Time
}

// Google fetches events from the primary calendar.
type Google struct {
	svc *gcal.Service
	cfg Config
}

// NewGoogle builds a client from cfg. Extra client options are appended
// after the credentials, which lets tests point the client elsewhere.
func NewGoogle(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Google, error) {
	if cfg.CredentialsFile == "" && len(opts) == 0 {
		return nil, ErrNotConfigured
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Retry.Attempts == 0 {
		cfg.Retry = retry.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts,
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(gcal.CalendarReadonlyScope))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := gcal.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Google{svc: svc, cfg: cfg}, nil
}

// FetchEvents implements Fetcher for the window starting now.
func (g *Google) FetchEvents(ctx context.Context) ([]Event, error) {
	now := g.cfg.Now().In(g.cfg.Location)
	policy := g.cfg.Retry
	policy.OnRetry = func(attempt int, err error) {
		g.cfg.Logger.Debug(ctx, "calendar fetch failed, retrying", logger.Int("attempt", attempt), logger.Error(err))
	}

	var events *gcal.Events
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		var err error
		events, err = g.svc.Events.List(primaryCalendar).
			TimeMin(now.Format(time.RFC3339)).
			TimeMax(now.Add(g.cfg.Window).Format(time.RFC3339)).
			MaxResults(g.cfg.MaxResults).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx).
			Do()
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != 429 {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		metrics.RecordCalendarRequest("error")
		metrics.RecordErrorByComponent("calendar", "fetch")
		return nil, fmt.Errorf("list events: %w", err)
	}
	metrics.RecordCalendarRequest("success")
	return toEvents(events.Items), nil
}

func toEvents(items []*gcal.Event) []Event {
	out := make([]Event, 0, len(items))
	for _, it := range items {
		e := Event{Summary: it.Summary}
		if e.Summary == "" {
			e.Summary = Untitled
		}
		if it.Start != nil {
			e.Start = it.Start.DateTime
			if e.Start == "" {
				e.Start = it.Start.Date
			}
		}
		out = append(out, e)
	}
	return out
}
