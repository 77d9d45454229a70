// Package recorder is the client of the OwnTracks Recorder HTTP API, the
// source of all location history.
//
// The recorder treats the "to" date of a location query as exclusive: a full
// calendar day D needs from=D, to=D+1, and from=D, to=D returns nothing. The
// client passes both dates through unchanged.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/jengzang/records-activity-go/internal/apperr"
	"github.com/jengzang/records-activity-go/internal/logging"
	"github.com/jengzang/records-activity-go/internal/metrics"
	"github.com/jengzang/records-activity-go/internal/models"
)

const dateLayout = "2006-01-02"

// maxResponseBytes bounds a single API response
const maxResponseBytes = 64 << 20

// Config configures the client
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration

	// BreakerMaxFailures consecutive failures open the breaker for BreakerTimeout
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

// Client talks to one OwnTracks Recorder
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	cb       *gobreaker.CircuitBreaker[[]byte]
	username string
	password string
	log      zerolog.Logger
}

// statusError is a non-2xx response
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// New creates a client. A missing or malformed base URL is a configuration error.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, apperr.Configuration("recorder.url", "is required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperr.Configuration("recorder.url", "invalid url %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = time.Minute
	}

	c := &Client{
		baseURL:  u,
		http:     &http.Client{Timeout: cfg.Timeout},
		username: cfg.Username,
		password: cfg.Password,
		log:      logging.WithComponent("recorder"),
	}

	name := "recorder:" + u.Host
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	c.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		// client errors say nothing about the recorder's health
		IsSuccessful: func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.Code < 500
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return c, nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// get performs GET <base>/api/0/<endpoint>?query through the circuit breaker
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	start := time.Now()
	body, err := c.cb.Execute(func() ([]byte, error) {
		u := *c.baseURL
		u.Path = u.Path + "/api/0/" + endpoint
		u.RawQuery = query.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.username != "" {
			req.SetBasicAuth(c.username, c.password)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &statusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		}
		return data, nil
	})
	metrics.RecorderRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RecorderErrors.WithLabelValues(endpoint).Inc()
		return nil, apperr.Upstream(endpoint, err)
	}
	return body, nil
}

// ListDevices returns the devices recorded for user, in recorder order
func (c *Client) ListDevices(ctx context.Context, user string) ([]string, error) {
	body, err := c.get(ctx, "list", url.Values{"user": {user}})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Results []string `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperr.Upstream("list", fmt.Errorf("failed to decode device list: %w", err))
	}
	return resp.Results, nil
}

// Locations returns the fixes of user/device with from <= day < to. Records
// missing lat, lon or tst are skipped. The result is sorted by timestamp.
func (c *Client) Locations(ctx context.Context, user, device string, from, to time.Time) ([]models.LocationFix, error) {
	query := url.Values{
		"user":   {user},
		"device": {device},
		"from":   {from.Format(dateLayout)},
		"to":     {to.Format(dateLayout)},
		"format": {"json"},
	}
	body, err := c.get(ctx, "locations", query)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Count int       `json:"count"`
		Data  []*record `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperr.Upstream("locations", fmt.Errorf("failed to decode locations: %w", err))
	}

	fixes := decodeRecords(resp.Data)
	c.log.Debug().
		Str("user", user).
		Str("device", device).
		Str("from", from.Format(dateLayout)).
		Str("to", to.Format(dateLayout)).
		Int("records", len(resp.Data)).
		Int("fixes", len(fixes)).
		Msg("fetched locations")
	return fixes, nil
}

// Last returns the most recent fix of user/device, or nil when there is none
func (c *Client) Last(ctx context.Context, user, device string) (*models.LocationFix, error) {
	body, err := c.get(ctx, "last", url.Values{"user": {user}, "device": {device}})
	if err != nil {
		return nil, err
	}

	var recs []*record
	if err := json.Unmarshal(body, &recs); err != nil {
		return nil, apperr.Upstream("last", fmt.Errorf("failed to decode last position: %w", err))
	}
	fixes := decodeRecords(recs)
	if len(fixes) == 0 {
		return nil, nil
	}
	last := fixes[len(fixes)-1]
	return &last, nil
}
