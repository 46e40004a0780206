// Package acs provides a client for the Census Bureau's American Community
// Survey API. It builds queries by geography, performs a single GET per call,
// and normalizes the tabular response into typed records with derived
// housing percentages.
package acs

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the root of the Census data API.
	DefaultBaseURL = "https://api.census.gov/data"
	// DefaultDataset is the 5-year ACS estimates dataset.
	DefaultDataset = "acs5"
	// APIKeyEnv is read at construction when no API key is configured.
	APIKeyEnv = "CENSUS_API_KEY"

	defaultUserAgent = "acs-cli/1.0"
)

// Option configures the Client.
type Option func(*Client)

// WithDataset sets the survey dataset, e.g. "acs5" or "acs1".
func WithDataset(dataset string) Option {
	return func(c *Client) {
		c.dataset = dataset
	}
}

// WithVariables sets the ordered variable codes to request.
func WithVariables(vars ...string) Option {
	return func(c *Client) {
		c.variables = append([]string(nil), vars...)
	}
}

// WithAPIKey sets the API key appended to every query.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithBaseURL sets a custom API root (for testing or a mirror).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds each request. Zero leaves only the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client fetches ACS data for one survey year and dataset. It holds only
// immutable configuration and is safe for concurrent use.
type Client struct {
	year      string
	dataset   string
	variables []string
	apiKey    string
	baseURL   string
	timeout   time.Duration
	http      *http.Client
}

// NewClient creates a Client for the given survey year. Without options it
// requests the full variable catalog from the acs5 dataset and reads the API
// key from CENSUS_API_KEY.
func NewClient(year string, opts ...Option) (*Client, error) {
	c := &Client{
		year:      strings.TrimSpace(year),
		dataset:   DefaultDataset,
		variables: DefaultVariables(),
		baseURL:   DefaultBaseURL,
		timeout:   30 * time.Second,
		http:      &http.Client{Transport: defaultTransport()},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.year == "" {
		return nil, eris.New("acs: year is required")
	}
	if c.dataset == "" {
		return nil, eris.New("acs: dataset is required")
	}
	if len(c.variables) == 0 {
		return nil, eris.New("acs: at least one variable is required")
	}
	if c.apiKey == "" {
		c.apiKey = os.Getenv(APIKeyEnv)
	}

	return c, nil
}

// defaultTransport clones http.DefaultTransport so proxy settings and
// handshake timeouts carry over.
func defaultTransport() *http.Transport {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.MaxIdleConnsPerHost = 10
	return tr
}

// Year returns the survey year.
func (c *Client) Year() string { return c.year }

// Dataset returns the survey dataset.
func (c *Client) Dataset() string { return c.dataset }

// Variables returns a copy of the requested variable codes.
func (c *Client) Variables() []string {
	return append([]string(nil), c.variables...)
}

// Endpoint returns the versioned dataset URL, {base}/{year}/{dataset}.
func (c *Client) Endpoint() string {
	return c.baseURL + "/" + c.year + "/" + c.dataset
}

// BuildQuery serializes q with the client's variables and API key.
func (c *Client) BuildQuery(q Query) string {
	return BuildQuery(c.variables, c.apiKey, q)
}

// URL returns the full request URL for q.
func (c *Client) URL(q Query) string {
	return c.Endpoint() + "?" + c.BuildQuery(q)
}

// GetData performs one request for q and returns the normalized records.
// Non-2xx answers are returned as *UpstreamError, unparseable data as
// *DataShapeError.
func (c *Client) GetData(ctx context.Context, q Query) (*Result, error) {
	body, err := c.do(ctx, c.URL(q))
	if err != nil {
		return nil, err
	}
	return Normalize(body)
}

func (c *Client) do(ctx context.Context, reqURL string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "acs: create request")
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/json")

	zap.L().Debug("acs: request", zap.String("url", redactKey(reqURL)))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "acs: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "acs: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		zap.L().Warn("acs: upstream error",
			zap.Int("status", resp.StatusCode),
			zap.String("url", redactKey(reqURL)),
		)
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			URL:        reqURL,
			Variables:  c.Variables(),
		}
	}

	return body, nil
}

// redactKey masks the key parameter so API keys stay out of logs.
func redactKey(u string) string {
	i := strings.Index(u, "key=")
	if i < 0 || (i > 0 && u[i-1] != '&' && u[i-1] != '?') {
		return u
	}
	end := strings.IndexByte(u[i:], '&')
	if end < 0 {
		return u[:i] + "key=REDACTED"
	}
	return u[:i] + "key=REDACTED" + u[i+end:]
}
