// Package gis queries cadastral layers of an ArcGIS REST MapServer.
package gis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/woozymasta/lotinfo/internal/config"
	"github.com/woozymasta/lotinfo/internal/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned by First when the layer has no matching feature.
var ErrNotFound = errors.New("no matching feature")

// StatusError reports a non-200 response from the service.
type StatusError struct {
	Layer int
	Code  int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("layer %d: unexpected status %d", e.Layer, e.Code)
}

// ServiceError is an error object returned inside a 200 response body.
type ServiceError struct {
	Message string   `json:"message"`
	Details []string `json:"details"`
	Code    int      `json:"code"`
	Layer   int      `json:"-"`
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("layer %d: service error %d: %s", e.Layer, e.Code, e.Message)
	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	return msg
}

// queryResponse is the subset of the ArcGIS query reply we use.
type queryResponse struct {
	Error    *ServiceError `json:"error"`
	Features []struct {
		Attributes Record `json:"attributes"`
	} `json:"features"`
}

// Client issues read-only attribute queries against MapServer layers.
// It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	baseURL     string
	filterField string
	userAgent   string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLimiter replaces the outbound rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// NewClient creates a client for the MapServer described by cfg.
func NewClient(cfg config.GIS, opts ...Option) *Client {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		limiter:     rate.NewLimiter(limit, burst),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		filterField: cfg.FilterField,
		userAgent:   cfg.UserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// First returns the attributes of the first feature of layer whose filter
// field equals id, or ErrNotFound. A first feature with empty or null
// attributes counts as no match.
func (c *Client) First(ctx context.Context, layer int, id string) (Record, error) {
	records, err := c.query(ctx, layer, id)
	if err != nil {
		return Record{}, err
	}
	if len(records) == 0 || records[0].Empty() {
		return Record{}, ErrNotFound
	}

	return records[0], nil
}

// All returns the attributes of every feature of layer whose filter field
// equals id. The slice is empty, not nil, when nothing matches.
func (c *Client) All(ctx context.Context, layer int, id string) ([]Record, error) {
	return c.query(ctx, layer, id)
}

// WhereEquals builds an equality expression for the service's SQL-like
// where clause. Single quotes in value are doubled so the value cannot
// terminate the string literal.
func WhereEquals(field, value string) string {
	return fmt.Sprintf("%s = '%s'", field, strings.ReplaceAll(value, "'", "''"))
}

// QueryURL returns the query endpoint URL for a layer and parcel id.
func (c *Client) QueryURL(layer int, id string) string {
	params := url.Values{}
	params.Set("where", WhereEquals(c.filterField, id))
	params.Set("outFields", "*")
	params.Set("f", "json")

	return fmt.Sprintf("%s/%d/query?%s", c.baseURL, layer, params.Encode())
}

func (c *Client) query(ctx context.Context, layer int, id string) (records []Record, err error) {
	layerLabel := strconv.Itoa(layer)
	start := time.Now()
	defer func() {
		metrics.GISDuration.WithLabelValues(layerLabel).Observe(time.Since(start).Seconds())

		outcome := "found"
		switch {
		case err != nil:
			outcome = "error"
		case len(records) == 0:
			outcome = "empty"
		}
		metrics.GISRequests.WithLabelValues(layerLabel, outcome).Inc()
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("layer %d: %w", layer, err)
	}

	reqURL := c.QueryURL(layer, id)
	zerolog.Ctx(ctx).Debug().
		Int("layer", layer).
		Str("url", reqURL).
		Msg("Querying GIS layer")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("layer %d: %w", layer, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Layer: layer, Code: resp.StatusCode}
	}

	var body queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("layer %d: decode response: %w", layer, err)
	}
	if body.Error != nil {
		body.Error.Layer = layer
		return nil, body.Error
	}

	records = make([]Record, 0, len(body.Features))
	for _, f := range body.Features {
		records = append(records, f.Attributes)
	}

	return records, nil
}
