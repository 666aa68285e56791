package intake

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/smarthealth/healthnav/internal/health"
	"github.com/smarthealth/healthnav/internal/log"
	"github.com/smarthealth/healthnav/internal/testutil"
	"github.com/smarthealth/healthnav/internal/vecindex"
)

type fakeRecordStore struct {
	insertErr error
	deleteErr error

	inserted []health.PatientRecord
	deleted  []string
}

func (f *fakeRecordStore) Insert(_ context.Context, rec health.PatientRecord) (time.Time, error) {
	if f.insertErr != nil {
		return time.Time{}, f.insertErr
	}
	f.inserted = append(f.inserted, rec)
	return time.Now(), nil
}

func (f *fakeRecordStore) Delete(_ context.Context, patientID string) error {
	f.deleted = append(f.deleted, patientID)
	return f.deleteErr
}

type fakeVectorStore struct {
	upsertErr error
	entries   []vecindex.Entry
}

func (f *fakeVectorStore) Upsert(_ context.Context, entries []vecindex.Entry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.entries = append(f.entries, entries...)
	return nil
}

func fullInput() health.IntakeInput {
	return health.IntakeInput{
		Name:              "Asha",
		Age:               "34",
		Gender:            "female",
		TreatmentHistory:  "physiotherapy",
		MedicationHistory: "sumatriptan",
		DiagnosisHistory:  "migraine",
		Symptoms:          "headache and nausea",
		Allergies:         "none",
	}
}

func newTestPipeline(t *testing.T, records RecordStore, vectors VectorStore, embedder Embedder) *Pipeline {
	t.Helper()
	p, err := New(records, vectors, embedder, log.NewNop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return p
}

func TestIngestFullSubmission(t *testing.T) {
	records := &fakeRecordStore{}
	vectors := &fakeVectorStore{}
	p := newTestPipeline(t, records, vectors, testutil.NewFakeEmbedder(8))

	patientID, count, err := p.Ingest(context.Background(), fullInput())
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}

	if patientID == "" {
		t.Error("expected a fresh patient id")
	}
	if count != 3 {
		t.Errorf("vector count = %d, want 3 (all categories filled)", count)
	}
	if len(records.inserted) != 1 {
		t.Fatalf("row inserts = %d, want 1", len(records.inserted))
	}
	if len(vectors.entries) != 3 {
		t.Fatalf("vector entries = %d, want 3", len(vectors.entries))
	}

	// Entry ids follow {patient_id}_{category}.
	for _, e := range vectors.entries {
		if !strings.HasPrefix(e.ID, patientID+"_") {
			t.Errorf("entry id %q not derived from patient id %q", e.ID, patientID)
		}
		if e.Metadata[health.MetaPatientID] != patientID {
			t.Errorf("entry %q metadata patient_id = %q", e.ID, e.Metadata[health.MetaPatientID])
		}
	}
}

func TestIngestSkipsBlankCategories(t *testing.T) {
	records := &fakeRecordStore{}
	vectors := &fakeVectorStore{}
	embedder := testutil.NewFakeEmbedder(8)
	p := newTestPipeline(t, records, vectors, embedder)

	in := fullInput()
	in.DiagnosisHistory = ""
	in.MedicationHistory = "   "

	_, count, err := p.Ingest(context.Background(), in)
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}

	if count != 1 {
		t.Errorf("vector count = %d, want 1 (only symptoms filled)", count)
	}
	if len(embedder.Calls) != 1 || embedder.Calls[0] != "headache and nausea" {
		t.Errorf("embedder calls = %v, want only the symptoms text", embedder.Calls)
	}
	if len(records.deleted) != 0 {
		t.Errorf("unexpected compensating delete: %v", records.deleted)
	}
}

func TestIngestRowOnlyWhenAllCategoriesBlank(t *testing.T) {
	records := &fakeRecordStore{}
	vectors := &fakeVectorStore{}
	p := newTestPipeline(t, records, vectors, testutil.NewFakeEmbedder(8))

	in := health.IntakeInput{Name: "Ben", Age: "40"}

	patientID, count, err := p.Ingest(context.Background(), in)
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if count != 0 {
		t.Errorf("vector count = %d, want 0", count)
	}
	if patientID == "" || len(records.inserted) != 1 {
		t.Error("row should still be stored for an all-blank category set")
	}
}

func TestIngestInsertFailureWritesNothing(t *testing.T) {
	records := &fakeRecordStore{insertErr: errors.New("connection refused")}
	vectors := &fakeVectorStore{}
	embedder := testutil.NewFakeEmbedder(8)
	p := newTestPipeline(t, records, vectors, embedder)

	_, _, err := p.Ingest(context.Background(), fullInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(embedder.Calls) != 0 {
		t.Error("embedding should not run when the row insert fails")
	}
	if len(vectors.entries) != 0 {
		t.Error("no vectors should be written when the row insert fails")
	}
}

func TestIngestEmbedFailureCompensates(t *testing.T) {
	records := &fakeRecordStore{}
	vectors := &fakeVectorStore{}
	embedder := testutil.NewFakeEmbedder(8)
	embedder.Err = errors.New("quota exceeded")
	p := newTestPipeline(t, records, vectors, embedder)

	_, _, err := p.Ingest(context.Background(), fullInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(vectors.entries) != 0 {
		t.Error("no vectors should be committed after an embedding failure")
	}
	if len(records.deleted) != 1 {
		t.Fatalf("compensating deletes = %d, want 1", len(records.deleted))
	}
	if records.deleted[0] != records.inserted[0].ID {
		t.Errorf("deleted %q, want the inserted row %q", records.deleted[0], records.inserted[0].ID)
	}
}

func TestIngestUpsertFailureCompensates(t *testing.T) {
	records := &fakeRecordStore{}
	vectors := &fakeVectorStore{upsertErr: errors.New("index unavailable")}
	p := newTestPipeline(t, records, vectors, testutil.NewFakeEmbedder(8))

	_, _, err := p.Ingest(context.Background(), fullInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(records.deleted) != 1 {
		t.Fatalf("compensating deletes = %d, want 1", len(records.deleted))
	}
}

func TestIngestFreshIdentityPerCall(t *testing.T) {
	records := &fakeRecordStore{}
	vectors := &fakeVectorStore{}
	p := newTestPipeline(t, records, vectors, testutil.NewFakeEmbedder(8))

	id1, _, err := p.Ingest(context.Background(), fullInput())
	if err != nil {
		t.Fatalf("first Ingest() error: %v", err)
	}
	id2, _, err := p.Ingest(context.Background(), fullInput())
	if err != nil {
		t.Fatalf("second Ingest() error: %v", err)
	}
	if id1 == id2 {
		t.Error("identical submissions must still get distinct patient ids")
	}
}
