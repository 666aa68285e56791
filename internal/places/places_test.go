package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		in           string
		wantQuery    string
		wantLocation string
		wantCountry  string
		wantErr      bool
	}{
		{"pediatric hospital | Chennai | in", "pediatric hospital", "Chennai", "in", false},
		{"pharmacy | Berlin", "pharmacy", "Berlin", "", false},
		{" clinic |  Austin  | us ", "clinic", "Austin", "us", false},
		{"just a question", "", "", "", true},
		{"a | b | c | d", "", "", "", true},
		{" | Chennai", "", "", "", true},
		{"hospital | ", "", "", "", true},
	}
	for _, tt := range tests {
		query, location, country, err := ParseQuery(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseQuery(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseQuery(%q) error: %v", tt.in, err)
			continue
		}
		if query != tt.wantQuery || location != tt.wantLocation || country != tt.wantCountry {
			t.Errorf("ParseQuery(%q) = (%q, %q, %q), want (%q, %q, %q)",
				tt.in, query, location, country, tt.wantQuery, tt.wantLocation, tt.wantCountry)
		}
	}
}

func TestMapsLink(t *testing.T) {
	p := Place{Latitude: 13.0827, Longitude: 80.2707}
	link := p.MapsLink()
	if !strings.Contains(link, "13.0827") || !strings.Contains(link, "80.2707") {
		t.Errorf("link = %q", link)
	}

	if (Place{}).MapsLink() != "" {
		t.Error("missing coordinates should give no link")
	}
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("engine") != "google_maps" || q.Get("api_key") != "test-key" {
			t.Errorf("unexpected params: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"local_results": [
			{"title": "City Hospital", "address": "1 Main St", "phone": "+1 555 0100",
			 "rating": 4.5, "gps_coordinates": {"latitude": 13.08, "longitude": 80.27}},
			{"title": "North Clinic"},
			{"title": "East Clinic"},
			{"title": "West Clinic"}
		]}`))
	}))
	defer server.Close()

	c, err := New("test-key", server.Client())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	c.baseURL = server.URL

	found, err := c.Search(context.Background(), "hospital", "Chennai", "in")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if len(found) != 3 {
		t.Fatalf("got %d places, want the cap of 3", len(found))
	}
	first := found[0]
	if first.Name != "City Hospital" || first.Address != "1 Main St" || first.Rating != 4.5 {
		t.Errorf("first place = %+v", first)
	}
	if first.Latitude != 13.08 || first.Longitude != 80.27 {
		t.Errorf("coordinates = %g, %g", first.Latitude, first.Longitude)
	}
}

func TestSearchValidation(t *testing.T) {
	if _, err := New("", nil); err == nil {
		t.Error("empty api key accepted")
	}

	c, _ := New("k", nil)
	if _, err := c.Search(context.Background(), "", "Chennai", ""); err == nil {
		t.Error("empty query accepted")
	}
	if _, err := c.Search(context.Background(), "hospital", "", ""); err == nil {
		t.Error("empty location accepted")
	}
}
