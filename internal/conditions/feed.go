package conditions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/matthewbaird/waypoint/internal/types"
)

// Feed returns the alerts active at a location. Implementations return an
// error when the upstream cannot answer; callers treat that as "unavailable".
type Feed interface {
	Alerts(ctx context.Context, at types.Coordinates) (*Snapshot, error)
}

// StaticFeed always returns the same snapshot. A nil Snapshot reports the
// feed as unavailable.
type StaticFeed struct {
	Snapshot *Snapshot
}

// ErrUnavailable is returned by feeds that have nothing to offer.
var ErrUnavailable = errors.New("conditions feed unavailable")

func (f StaticFeed) Alerts(context.Context, types.Coordinates) (*Snapshot, error) {
	if f.Snapshot == nil {
		return nil, ErrUnavailable
	}
	return f.Snapshot, nil
}

const (
	DefaultNWSBaseURL   = "https://api.weather.gov"
	DefaultNWSUserAgent = "waypoint/1.0 (ops@waypoint.example)"
	defaultNWSTimeout   = 5 * time.Second
)

// NWSClient reads active alerts from the National Weather Service API: the
// point lookup yields a forecast zone, and the zone's active alerts are fetched.
type NWSClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NWSOption configures an NWSClient.
type NWSOption func(*NWSClient)

// WithBaseURL points the client at another host (tests, mirrors).
func WithBaseURL(u string) NWSOption {
	return func(c *NWSClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithUserAgent sets the User-Agent header. The NWS API rejects requests without one.
func WithUserAgent(ua string) NWSOption {
	return func(c *NWSClient) { c.userAgent = ua }
}

// WithHTTPClient replaces the default client (5s timeout).
func WithHTTPClient(h *http.Client) NWSOption {
	return func(c *NWSClient) { c.http = h }
}

// WithRateLimit caps outbound requests per second. Zero disables limiting.
func WithRateLimit(perSecond float64, burst int) NWSOption {
	return func(c *NWSClient) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) NWSOption {
	return func(c *NWSClient) { c.logger = l }
}

// NewNWSClient creates a client with defaults of api.weather.gov, a 5s timeout
// and 5 requests per second.
func NewNWSClient(opts ...NWSOption) *NWSClient {
	c := &NWSClient{
		baseURL:   DefaultNWSBaseURL,
		userAgent: DefaultNWSUserAgent,
		http:      &http.Client{Timeout: defaultNWSTimeout},
		limiter:   rate.NewLimiter(5, 5),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type pointResponse struct {
	Properties struct {
		ForecastZone string `json:"forecastZone"`
	} `json:"properties"`
}

type alertsResponse struct {
	Features []struct {
		Properties struct {
			Event    string `json:"event"`
			Severity string `json:"severity"`
			Urgency  string `json:"urgency"`
			Headline string `json:"headline"`
		} `json:"properties"`
	} `json:"features"`
}

// Alerts implements Feed.
func (c *NWSClient) Alerts(ctx context.Context, at types.Coordinates) (*Snapshot, error) {
	var point pointResponse
	if err := c.get(ctx, fmt.Sprintf("/points/%.4f,%.4f", at.Latitude, at.Longitude), &point); err != nil {
		return nil, fmt.Errorf("nws point lookup: %w", err)
	}
	if point.Properties.ForecastZone == "" {
		return nil, fmt.Errorf("nws point lookup: no forecast zone for %.4f,%.4f", at.Latitude, at.Longitude)
	}
	zone := path.Base(point.Properties.ForecastZone)

	var alerts alertsResponse
	if err := c.get(ctx, "/alerts/active/zone/"+zone, &alerts); err != nil {
		return nil, fmt.Errorf("nws alerts for zone %s: %w", zone, err)
	}

	snap := &Snapshot{Alerts: make([]Alert, 0, len(alerts.Features))}
	for _, f := range alerts.Features {
		p := f.Properties
		a := Alert{
			Event:    p.Event,
			Severity: Severity(p.Severity),
			Urgency:  Urgency(p.Urgency),
			Headline: p.Headline,
		}
		if a.Event == "" {
			a.Event = "Weather Alert"
		}
		if a.Severity == "" {
			a.Severity = SeverityUnknown
		}
		if a.Urgency == "" {
			a.Urgency = UrgencyUnknown
		}
		snap.Alerts = append(snap.Alerts, a)
	}
	c.logger.Debug("nws alerts fetched", "zone", zone, "count", len(snap.Alerts))
	return snap, nil
}

func (c *NWSClient) get(ctx context.Context, p string, dst any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+p, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
