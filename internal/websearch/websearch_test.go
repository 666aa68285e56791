package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewValidation(t *testing.T) {
	if _, err := New("", "engine", nil); err == nil {
		t.Error("empty api key accepted")
	}
	if _, err := New("key", "", nil); err == nil {
		t.Error("empty engine id accepted")
	}
	if _, err := New("key", "engine", nil); err != nil {
		t.Errorf("New() error: %v", err)
	}
}

func TestSearch(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"key": q.Get("key"),
			"cx":  q.Get("cx"),
			"q":   q.Get("q"),
			"num": q.Get("num"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": [
			{"title": "Tension headaches", "link": "https://example.org/th", "snippet": "Overview"},
			{"title": "Migraine basics", "link": "https://example.org/mb", "snippet": "Basics"}
		]}`))
	}))
	defer server.Close()

	c, err := New("test-key", "test-engine", server.Client())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	c.baseURL = server.URL

	results, err := c.Search(context.Background(), "headache", 2)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Title != "Tension headaches" || results[0].Link != "https://example.org/th" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if gotQuery["key"] != "test-key" || gotQuery["cx"] != "test-engine" {
		t.Errorf("credentials not sent: %v", gotQuery)
	}
	if gotQuery["q"] != "headache" || gotQuery["num"] != "2" {
		t.Errorf("query params = %v", gotQuery)
	}
}

func TestSearchClampsNum(t *testing.T) {
	var gotNum string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotNum = r.URL.Query().Get("num")
		_, _ = w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	c, _ := New("k", "e", server.Client())
	c.baseURL = server.URL

	if _, err := c.Search(context.Background(), "q", 100); err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if gotNum != "10" {
		t.Errorf("num = %s, want the API cap of 10", gotNum)
	}

	if _, err := c.Search(context.Background(), "q", -5); err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if gotNum != "1" {
		t.Errorf("num = %s, want clamped to 1", gotNum)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	c, _ := New("k", "e", nil)
	if _, err := c.Search(context.Background(), "", 3); err == nil {
		t.Error("empty query accepted")
	}
}

func TestSearchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer server.Close()

	c, _ := New("k", "e", server.Client())
	c.baseURL = server.URL

	if _, err := c.Search(context.Background(), "q", 3); err == nil {
		t.Error("non-200 response must be an error")
	}
}
