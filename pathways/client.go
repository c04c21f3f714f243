// Package pathways serves the Pathways health segmentation platform as MCP
// tools. It reads from the platform's Strapi CMS over REST and exposes
// segmentations, segments, metrics, variables, reference data, geography and
// case studies to a conversational model.
package pathways

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"pathways/config"
	"pathways/telemetry"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	requestTimeout          = 30 * time.Second
	defaultFetchAllPageSize = 100
	DefaultMaxRecords       = 5000
)

var ErrMalformedResponse = errors.New("malformed response from the Pathways API")

// APIError reports a non-2xx response from the Strapi API.
type APIError struct {
	Endpoint string
	Status   int
}

func (e *APIError) Error() string {
	switch e.Status {
	case http.StatusForbidden:
		return fmt.Sprintf("Access denied to %s. Check your PATHWAYS_API_TOKEN.", e.Endpoint)
	case http.StatusNotFound:
		return fmt.Sprintf("Endpoint '%s' not found on the Strapi API.", e.Endpoint)
	default:
		return fmt.Sprintf("request to %s failed with status %d %s", e.Endpoint, e.Status, http.StatusText(e.Status))
	}
}

// Pagination mirrors Strapi's meta.pagination block.
type Pagination struct {
	Page      int
	PageSize  int
	PageCount int
	Total     int
}

// Page is one page of a collection response.
type Page struct {
	Data       []gjson.Result
	Pagination Pagination
}

// Client is a read-only client for the Pathways Strapi API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the API at baseURL. Requests go to
// baseURL + "/api". A nil httpClient selects the instrumented retrying
// client from the telemetry package.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = telemetry.NewHTTPClient(requestTimeout)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/api",
		token:      token,
		httpClient: httpClient,
	}
}

// NewClientFromEnv creates a client from PATHWAYS_API_TOKEN and
// PATHWAYS_API_URL. The error names whichever variable is missing.
func NewClientFromEnv() (*Client, error) {
	token := os.Getenv("PATHWAYS_API_TOKEN")
	if token == "" {
		return nil, errors.New("PATHWAYS_API_TOKEN environment variable is required. " +
			"Get a read-only API token from the Pathways Strapi admin.")
	}
	baseURL := os.Getenv("PATHWAYS_API_URL")
	if baseURL == "" {
		return nil, errors.New("PATHWAYS_API_URL environment variable is required. " +
			"Set it to the base URL of the Pathways Strapi API.")
	}
	return NewClient(baseURL, token, nil), nil
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchCollection fetches a single page from a collection endpoint.
func (c *Client) FetchCollection(ctx context.Context, endpoint string, opts QueryOptions) (*Page, error) {
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	reqURL := c.baseURL + "/" + strings.TrimLeft(endpoint, "/") + "?" + BuildQuery(opts).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Pathways] GET %s", reqURL)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Endpoint: endpoint, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%s: %w", endpoint, ErrMalformedResponse)
	}

	return parsePage(body, pageSize), nil
}

func parsePage(body []byte, requestedSize int) *Page {
	parsed := gjson.ParseBytes(body)
	meta := parsed.Get("meta.pagination")

	intOr := func(path string, def int) int {
		v := meta.Get(path)
		if !v.Exists() {
			return def
		}
		return int(v.Int())
	}

	return &Page{
		Data: parsed.Get("data").Array(),
		Pagination: Pagination{
			Page:      intOr("page", 1),
			PageSize:  intOr("pageSize", requestedSize),
			PageCount: intOr("pageCount", 1),
			Total:     intOr("total", 0),
		},
	}
}

// FetchAll pages through a collection until every record has been read or
// maxRecords is reached. A zero PageSize defaults to 100 and a zero
// maxRecords to DefaultMaxRecords.
func (c *Client) FetchAll(ctx context.Context, endpoint string, opts QueryOptions, maxRecords int) ([]gjson.Result, error) {
	if opts.PageSize < 1 {
		opts.PageSize = defaultFetchAllPageSize
	}
	if maxRecords < 1 {
		maxRecords = DefaultMaxRecords
	}

	var all []gjson.Result
	for page := 1; ; page++ {
		opts.Page = page
		result, err := c.FetchCollection(ctx, endpoint, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, result.Data...)

		p := result.Pagination
		if page >= p.PageCount || len(all) >= min(p.Total, maxRecords) {
			break
		}
	}

	if len(all) > maxRecords {
		all = all[:maxRecords]
	}
	return all, nil
}
