package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/smarthealth/healthnav/internal/health"
	"github.com/smarthealth/healthnav/internal/log"
	"github.com/smarthealth/healthnav/internal/testutil"
	"github.com/smarthealth/healthnav/internal/vecindex"
)

// fakeIndex returns canned hits for every query.
type fakeIndex struct {
	hits []vecindex.Hit
	err  error

	gotTopK int
}

func (f *fakeIndex) Query(_ context.Context, _ []float32, topK int) ([]vecindex.Hit, error) {
	f.gotTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func hit(patientID, category string, score float32, name string) vecindex.Hit {
	return vecindex.Hit{
		ID:    vecindex.EntryID(patientID, health.Category(category)),
		Score: score,
		Metadata: map[string]string{
			health.MetaPatientID: patientID,
			health.MetaName:      name,
			health.MetaCategory:  category,
		},
	}
}

func newTestEngine(t *testing.T, index VectorQuerier) *Engine {
	t.Helper()
	e, err := New(index, testutil.NewFakeEmbedder(8), log.NewNop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return e
}

func TestRetrieveGroupsByPatient(t *testing.T) {
	index := &fakeIndex{hits: []vecindex.Hit{
		hit("p1", "symptoms", 0.90, "Asha"),
		hit("p2", "diagnosis", 0.80, "Ben"),
		hit("p1", "medication", 0.70, "Asha"),
	}}
	e := newTestEngine(t, index)

	matches, err := e.Retrieve(context.Background(), "chest pain", 3)
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2 distinct patients", len(matches))
	}

	// p1 keeps its maximum score and accumulates both categories.
	if matches[0].Record.ID != "p1" || matches[0].Score != 0.90 {
		t.Errorf("matches[0] = %s score %.2f, want p1 score 0.90", matches[0].Record.ID, matches[0].Score)
	}
	if len(matches[0].Categories) != 2 {
		t.Errorf("p1 categories = %v, want symptoms and medication", matches[0].Categories)
	}
	if matches[1].Record.ID != "p2" || matches[1].Score != 0.80 {
		t.Errorf("matches[1] = %s score %.2f, want p2 score 0.80", matches[1].Record.ID, matches[1].Score)
	}
}

func TestRetrieveMaxScoreWins(t *testing.T) {
	// Lower-scored category arrives first; the group must still surface the max.
	index := &fakeIndex{hits: []vecindex.Hit{
		hit("p1", "medication", 0.60, "Asha"),
		hit("p1", "symptoms", 0.95, "Asha"),
	}}
	e := newTestEngine(t, index)

	matches, err := e.Retrieve(context.Background(), "migraine", 0)
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Score != 0.95 {
		t.Errorf("score = %.2f, want group max 0.95", matches[0].Score)
	}
}

func TestRetrieveOrdersByScoreDescending(t *testing.T) {
	index := &fakeIndex{hits: []vecindex.Hit{
		hit("low", "symptoms", 0.50, "Low"),
		hit("high", "symptoms", 0.90, "High"),
		hit("mid", "symptoms", 0.70, "Mid"),
	}}
	e := newTestEngine(t, index)

	matches, err := e.Retrieve(context.Background(), "fever", 3)
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}

	for i := 1; i < len(matches); i++ {
		if matches[i-1].Score < matches[i].Score {
			t.Errorf("matches out of order at %d: %.2f before %.2f", i, matches[i-1].Score, matches[i].Score)
		}
	}
	if matches[0].Record.ID != "high" {
		t.Errorf("best match = %s, want high", matches[0].Record.ID)
	}
}

func TestRetrieveEqualScoresKeepIndexOrder(t *testing.T) {
	// Three distinct patients tie at the same score; the stable sort must
	// keep the order in which they first appeared in the raw hit list.
	index := &fakeIndex{hits: []vecindex.Hit{
		hit("a", "symptoms", 0.80, "A"),
		hit("b", "diagnosis", 0.80, "B"),
		hit("c", "medication", 0.80, "C"),
	}}
	e := newTestEngine(t, index)

	matches, err := e.Retrieve(context.Background(), "back pain", 3)
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}

	want := []string{"a", "b", "c"}
	for i, id := range want {
		if matches[i].Record.ID != id {
			t.Errorf("matches[%d] = %s, want %s (first-appearance order)", i, matches[i].Record.ID, id)
		}
	}
}

func TestRetrieveUnknownMarkersForMissingMetadata(t *testing.T) {
	index := &fakeIndex{hits: []vecindex.Hit{
		{
			ID:    "p9_symptoms",
			Score: 0.75,
			Metadata: map[string]string{
				health.MetaPatientID: "p9",
				health.MetaCategory:  "symptoms",
				// name, age etc. deliberately absent
			},
		},
	}}
	e := newTestEngine(t, index)

	matches, err := e.Retrieve(context.Background(), "rash", 1)
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}

	r := matches[0].Record
	if r.Name != health.Unknown || r.Age != health.Unknown {
		t.Errorf("missing fields should be %q, got name=%q age=%q", health.Unknown, r.Name, r.Age)
	}
	if r.ID != "p9" {
		t.Errorf("patient id = %q, want p9", r.ID)
	}
}

func TestRetrieveNoHitsIsNotFound(t *testing.T) {
	e := newTestEngine(t, &fakeIndex{})

	_, err := e.Retrieve(context.Background(), "anything", 3)
	if !errors.Is(err, health.ErrNotFound) {
		t.Errorf("err = %v, want health.ErrNotFound", err)
	}
}

func TestRetrieveValidation(t *testing.T) {
	e := newTestEngine(t, &fakeIndex{hits: []vecindex.Hit{hit("p1", "symptoms", 0.9, "A")}})

	if _, err := e.Retrieve(context.Background(), "", 3); !errors.Is(err, health.ErrValidation) {
		t.Errorf("empty query: err = %v, want health.ErrValidation", err)
	}
	if _, err := e.Retrieve(context.Background(), "q", MaxTopK+1); !errors.Is(err, health.ErrValidation) {
		t.Errorf("oversized top_k: err = %v, want health.ErrValidation", err)
	}
	if _, err := e.Retrieve(context.Background(), "q", -1); !errors.Is(err, health.ErrValidation) {
		t.Errorf("negative top_k: err = %v, want health.ErrValidation", err)
	}
}

func TestRetrieveDefaultTopK(t *testing.T) {
	index := &fakeIndex{hits: []vecindex.Hit{hit("p1", "symptoms", 0.9, "A")}}
	e := newTestEngine(t, index)

	if _, err := e.Retrieve(context.Background(), "q", 0); err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if index.gotTopK != DefaultTopK {
		t.Errorf("index queried with top_k=%d, want default %d", index.gotTopK, DefaultTopK)
	}
}

func TestAuthoritative(t *testing.T) {
	tests := []struct {
		score float32
		want  bool
	}{
		{0.64, false},
		{0.65, true},
		{0.90, true},
	}
	for _, tt := range tests {
		m := PatientMatch{Score: tt.score}
		if got := m.Authoritative(DefaultScoreThreshold); got != tt.want {
			t.Errorf("Authoritative(%.2f at %.2f) = %v, want %v", tt.score, DefaultScoreThreshold, got, tt.want)
		}
	}
}
