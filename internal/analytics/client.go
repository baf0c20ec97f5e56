package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/odyssey-erp/lead-insights/internal/shared"
)

// ErrFetch is matched by every FetchError.
var ErrFetch = errors.New("analytics: fetch failed")

// FetchError describes a failed call to the analytics service.
type FetchError struct {
	Op     string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("analytics: %s: %v", e.Op, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("analytics: %s: status %d", e.Op, e.Status)
	default:
		return "analytics: " + e.Op + ": failed"
	}
}

func (e *FetchError) Unwrap() []error {
	errs := []error{ErrFetch}
	if e.Status == http.StatusNotFound {
		errs = append(errs, shared.ErrNotFound)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Fetcher is the remote analytics contract consumed by the views.
type Fetcher interface {
	GetLeadMetrics(ctx context.Context, leadID string) (LeadMetrics, error)
	GetDashboardData(ctx context.Context) (DashboardData, error)
	GetTerritoryMetrics(ctx context.Context, territoryID string) (TerritoryMetrics, error)
}

// Client talks JSON over HTTP to the analytics service.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a client. A zero timeout falls back to 30 seconds.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient swaps the underlying transport client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// Ping checks that the analytics service answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{Op: "ping", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return &FetchError{Op: "ping", Status: resp.StatusCode}
	}
	return nil
}

// GetLeadMetrics loads the scoring snapshot for one lead.
func (c *Client) GetLeadMetrics(ctx context.Context, leadID string) (LeadMetrics, error) {
	var out LeadMetrics
	err := c.get(ctx, "lead metrics", "/leads/"+url.PathEscape(leadID)+"/metrics", &out)
	return out, err
}

// GetDashboardData loads the organisation wide aggregate.
func (c *Client) GetDashboardData(ctx context.Context) (DashboardData, error) {
	var out DashboardData
	err := c.get(ctx, "dashboard data", "/dashboard", &out)
	return out, err
}

// GetTerritoryMetrics loads the aggregate for one territory.
func (c *Client) GetTerritoryMetrics(ctx context.Context, territoryID string) (TerritoryMetrics, error) {
	var out TerritoryMetrics
	err := c.get(ctx, "territory metrics", "/territories/"+url.PathEscape(territoryID)+"/metrics", &out)
	return out, err
}

func (c *Client) get(ctx context.Context, op, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return &FetchError{Op: op, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &FetchError{Op: op, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
