// Package google implements the search capability against the Google
// Custom Search JSON API.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/hdcnetworks/leadscan/internal/leads"
)

const defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// Config captures the parameters for the Custom Search client.
type Config struct {
	APIKey   string
	EngineID string
	// NumResults per query, 1..10 (API maximum).
	NumResults int
	Timeout    time.Duration
	// RequestsPerSec throttles API calls across the run. Zero disables
	// throttling.
	RequestsPerSec int
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Client implements leads.Searcher.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a Custom Search client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.EngineID == "" {
		return nil, fmt.Errorf("engine id is required")
	}
	if cfg.NumResults <= 0 || cfg.NumResults > 10 {
		cfg.NumResults = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := &Client{
		cfg:     cfg,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RequestsPerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// searchResponse mirrors the subset of the CSE payload we consume.
type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Search runs one query and returns the parsed items plus the raw
// body for archival. A non-2xx status is an error; the caller isolates
// it to the query.
func (c *Client) Search(ctx context.Context, query string) (leads.SearchResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return leads.SearchResponse{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	params := url.Values{}
	params.Set("key", c.cfg.APIKey)
	params.Set("cx", c.cfg.EngineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(c.cfg.NumResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return leads.SearchResponse{}, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return leads.SearchResponse{}, fmt.Errorf("execute search request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return leads.SearchResponse{}, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return leads.SearchResponse{}, fmt.Errorf("search returned status %d: %s", resp.StatusCode, truncate(body, 256))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return leads.SearchResponse{}, fmt.Errorf("decode search response: %w", err)
	}

	out := leads.SearchResponse{Raw: body}
	for _, item := range parsed.Items {
		out.Results = append(out.Results, leads.SearchResult{
			URL:     item.Link,
			Title:   item.Title,
			Snippet: item.Snippet,
		})
	}
	return out, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
