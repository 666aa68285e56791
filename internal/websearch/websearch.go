// Package websearch is a thin client for the Google Custom Search JSON API.
// The assistant uses it as the external knowledge source when a similarity
// match falls below the confidence threshold: better a cited snippet than a
// fabricated answer over a weak match.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

	// maxResults is the per-request cap the API supports.
	maxResults = 10

	defaultTimeout = 15 * time.Second
)

// Result is one search hit: metadata and snippet only, no page content.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Client queries the Google Custom Search JSON API.
type Client struct {
	apiKey   string
	engineID string
	baseURL  string
	httpc    *http.Client
}

// New creates a search Client. httpc == nil selects a client with a
// sensible default timeout.
func New(apiKey, engineID string, httpc *http.Client) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if engineID == "" {
		return nil, fmt.Errorf("search engine id is required")
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{apiKey: apiKey, engineID: engineID, baseURL: defaultBaseURL, httpc: httpc}, nil
}

// Search returns up to num results for query. num is clamped to [1, 10].
// A non-200 response is an error; the client never fabricates results.
func (c *Client) Search(ctx context.Context, query string, num int) ([]Result, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if num < 1 {
		num = 1
	}
	if num > maxResults {
		num = maxResults
	}

	params := url.Values{
		"key": {c.apiKey},
		"cx":  {c.engineID},
		"q":   {query},
		"num": {fmt.Sprint(num)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("search returned HTTP %d: %s", resp.StatusCode, detail)
	}

	var body struct {
		Items []Result `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return body.Items, nil
}
