// Package pubmed is a thin client for the NCBI E-utilities API, used by the
// assistant's literature-search handler. It chains esearch (term -> PMIDs)
// with esummary (PMID -> article metadata), both in JSON mode.
package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// defaultRetMax is how many PMIDs a term search requests when the
	// caller passes zero.
	defaultRetMax = 5

	defaultTimeout = 15 * time.Second
)

// Article is the summary metadata for one PubMed article.
type Article struct {
	PMID    string   `json:"pmid"`
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	URL     string   `json:"url"`
}

// Client queries the NCBI E-utilities endpoints.
type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

// New creates a PubMed Client. The API key is optional (NCBI rate-limits
// keyless clients harder but accepts them). httpc == nil selects a client
// with a default timeout.
func New(apiKey string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{apiKey: apiKey, baseURL: defaultBaseURL, httpc: httpc}
}

// SearchIDs returns up to retMax PMIDs for a search term, relevance-sorted.
func (c *Client) SearchIDs(ctx context.Context, term string, retMax int) ([]string, error) {
	if term == "" {
		return nil, fmt.Errorf("search term is required")
	}
	if retMax <= 0 {
		retMax = defaultRetMax
	}

	params := url.Values{
		"db":      {"pubmed"},
		"term":    {term},
		"retmax":  {fmt.Sprint(retMax)},
		"retmode": {"json"},
		"sort":    {"relevance"},
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	var body struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := c.getJSON(ctx, "/esearch.fcgi", params, &body); err != nil {
		return nil, fmt.Errorf("searching pubmed: %w", err)
	}
	return body.ESearchResult.IDList, nil
}

// Summaries fetches article metadata for the given PMIDs.
func (c *Client) Summaries(ctx context.Context, pmids []string) ([]Article, error) {
	if len(pmids) == 0 {
		return nil, fmt.Errorf("at least one pmid is required")
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"retmode": {"json"},
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	var body struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := c.getJSON(ctx, "/esummary.fcgi", params, &body); err != nil {
		return nil, fmt.Errorf("fetching summaries: %w", err)
	}

	articles := make([]Article, 0, len(pmids))
	for _, pmid := range pmids {
		raw, ok := body.Result[pmid]
		if !ok {
			continue
		}
		var summary struct {
			Title   string `json:"title"`
			Authors []struct {
				Name string `json:"name"`
			} `json:"authors"`
		}
		if err := json.Unmarshal(raw, &summary); err != nil {
			continue
		}
		authors := make([]string, 0, len(summary.Authors))
		for _, a := range summary.Authors {
			if a.Name != "" {
				authors = append(authors, a.Name)
			}
		}
		articles = append(articles, Article{
			PMID:    pmid,
			Title:   summary.Title,
			Authors: authors,
			URL:     ArticleURL(pmid),
		})
	}
	return articles, nil
}

// Search chains SearchIDs and Summaries: term in, ranked articles out.
func (c *Client) Search(ctx context.Context, term string, retMax int) ([]Article, error) {
	pmids, err := c.SearchIDs(ctx, term, retMax)
	if err != nil {
		return nil, err
	}
	if len(pmids) == 0 {
		return nil, nil
	}
	return c.Summaries(ctx, pmids)
}

// ArticleURL returns the canonical PubMed page for a PMID.
func ArticleURL(pmid string) string {
	return "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/"
}

// getJSON performs one GET against an E-utilities endpoint and decodes the
// JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, detail)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
