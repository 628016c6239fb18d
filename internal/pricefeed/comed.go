// Package pricefeed reads ComEd's real-time 5-minute electricity prices.
package pricefeed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // America/Chicago on hosts without zoneinfo

	"github.com/bytedance/sonic"

	"github.com/tinytelemetry/poolstat/internal/model"
)

const (
	DefaultURL      = "https://hourlypricing.comed.com/api?type=5minutefeed"
	DefaultTimezone = "America/Chicago"
	DefaultWindow   = 10 * time.Minute
	DefaultTimeout  = 10 * time.Second
)

const maxFeedBytes = 4 << 20

// Config controls the feed client.
type Config struct {
	URL      string
	Timezone string
	Window   time.Duration
	Timeout  time.Duration
}

// Client fetches recent price points.
type Client struct {
	url    string
	loc    *time.Location
	window time.Duration
	http   *http.Client
	now    func() time.Time
}

// New returns a client for cfg, filling defaults.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("pricefeed: load timezone %q: %w", cfg.Timezone, err)
	}
	return &Client{
		url:    cfg.URL,
		loc:    loc,
		window: cfg.Window,
		http:   &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
	}, nil
}

// Recent returns the points published within the window, in feed order,
// with times formatted as HH:MM in the configured timezone.
func (c *Client) Recent(ctx context.Context) ([]model.PricePoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("pricefeed: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pricefeed: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pricefeed: fetch: http %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("pricefeed: read: %w", err)
	}

	var entries []map[string]any
	if err := sonic.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("pricefeed: decode: %w", err)
	}

	cutoff := c.now().Add(-c.window).UnixMilli()
	out := []model.PricePoint{}
	for _, e := range entries {
		millis, ok := toInt64(e["millisUTC"])
		if !ok || millis < cutoff {
			continue
		}
		out = append(out, model.PricePoint{
			Time:  time.UnixMilli(millis).In(c.loc).Format("15:04"),
			Price: toString(e["price"]),
		})
	}
	return out, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func toString(v any) string {
	switch p := v.(type) {
	case string:
		return p
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64)
	default:
		return ""
	}
}
