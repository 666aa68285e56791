// Package places finds nearby facilities (hospitals, clinics, pharmacies)
// through the SerpApi google_maps engine.
package places

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
	defaultBaseURL = "https://serpapi.com/search"

	// maxPlaces bounds how many local results a lookup returns.
	maxPlaces = 3

	defaultTimeout = 15 * time.Second
)

// Place is one local result.
type Place struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Phone     string  `json:"phone"`
	Rating    float64 `json:"rating"`
	Website   string  `json:"website"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// MapsLink returns a Google Maps search link for the place's coordinates,
// or empty when coordinates are missing.
func (p Place) MapsLink() string {
	if p.Latitude == 0 && p.Longitude == 0 {
		return ""
	}
	return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%g,%g", p.Latitude, p.Longitude)
}

// Client queries SerpApi for local places.
type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

// New creates a places Client. httpc == nil selects a client with a default
// timeout.
func New(apiKey string, httpc *http.Client) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{apiKey: apiKey, baseURL: defaultBaseURL, httpc: httpc}, nil
}

// Search returns up to three places matching query near location.
// countryCode is a two-letter Google country code ("us", "in", ...).
func (c *Client) Search(ctx context.Context, query, location, countryCode string) ([]Place, error) {
	if query == "" || location == "" {
		return nil, fmt.Errorf("query and location are required")
	}

	params := url.Values{
		"engine":        {"google_maps"},
		"q":             {query},
		"location":      {location},
		"gl":            {countryCode},
		"hl":            {"en"},
		"google_domain": {"google.com"},
		"api_key":       {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building places request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching places: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("places search returned HTTP %d: %s", resp.StatusCode, detail)
	}

	var body struct {
		LocalResults []struct {
			Title          string  `json:"title"`
			Address        string  `json:"address"`
			Phone          string  `json:"phone"`
			Rating         float64 `json:"rating"`
			Website        string  `json:"website"`
			GPSCoordinates struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"gps_coordinates"`
		} `json:"local_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding places response: %w", err)
	}

	places := make([]Place, 0, maxPlaces)
	for _, r := range body.LocalResults {
		if len(places) == maxPlaces {
			break
		}
		places = append(places, Place{
			Name:      r.Title,
			Address:   r.Address,
			Phone:     r.Phone,
			Rating:    r.Rating,
			Website:   r.Website,
			Latitude:  r.GPSCoordinates.Latitude,
			Longitude: r.GPSCoordinates.Longitude,
		})
	}
	return places, nil
}

// ParseQuery splits the conversational "query | location | country_code"
// form the assistant passes through. The country code may be omitted.
func ParseQuery(input string) (query, location, countryCode string, err error) {
	parts := strings.Split(input, "|")
	if len(parts) < 2 || len(parts) > 3 {
		return "", "", "", fmt.Errorf("expected 'query | location | country_code', got %q", input)
	}
	query = strings.TrimSpace(parts[0])
	location = strings.TrimSpace(parts[1])
	if len(parts) == 3 {
		countryCode = strings.TrimSpace(parts[2])
	}
	if query == "" || location == "" {
		return "", "", "", fmt.Errorf("query and location must be non-empty in %q", input)
	}
	return query, location, countryCode, nil
}
