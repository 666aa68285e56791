// Package intake implements the record ingestion pipeline: one structured
// row plus zero to three category vectors per completed submission, written
// as a logical unit.
//
// Write order matters. The structured row goes first because the vector
// metadata denormalizes fields the row insert has already accepted. If the
// vector upsert then fails, the pipeline deletes the row again (compensating
// action) so the two stores never disagree about which patients exist.
package intake

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/smarthealth/healthnav/internal/health"
	"github.com/smarthealth/healthnav/internal/vecindex"
)

// Embedder generates a fixed-length vector for one text.
// *embedding.Provider satisfies this in production.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RecordStore is the structured-store surface the pipeline needs.
// *patientstore.Store satisfies this in production.
type RecordStore interface {
	Insert(ctx context.Context, rec health.PatientRecord) (time.Time, error)
	Delete(ctx context.Context, patientID string) error
}

// VectorStore is the vector-index surface the pipeline needs.
// *vecindex.Index satisfies this in production.
type VectorStore interface {
	Upsert(ctx context.Context, entries []vecindex.Entry) error
}

// Pipeline turns intake submissions into durable rows and category vectors.
//
// Pipeline is safe for concurrent use; independent ingestions share nothing
// but the underlying connection pools.
type Pipeline struct {
	records  RecordStore
	vectors  VectorStore
	embedder Embedder
	logger   *slog.Logger
}

// New creates an ingestion Pipeline.
func New(records RecordStore, vectors VectorStore, embedder Embedder, logger *slog.Logger) (*Pipeline, error) {
	if records == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if vectors == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{records: records, vectors: vectors, embedder: embedder, logger: logger}, nil
}

// Ingest stores one submission and returns the fresh patient id plus the
// number of category vectors written (the count of non-blank fields among
// symptoms, diagnosis history and medication history).
//
// Every call creates a new patient identity; repeated identical submissions
// are not deduplicated. Any embedding failure aborts the whole ingestion
// before vectors are written, and a failed vector upsert rolls the row back
// via compensating delete, so a returned error always means nothing durable
// remains from this call.
func (p *Pipeline) Ingest(ctx context.Context, in health.IntakeInput) (string, int, error) {
	patientID := uuid.NewString()
	rec := in.Record(patientID)

	createdAt, err := p.records.Insert(ctx, rec)
	if err != nil {
		return "", 0, fmt.Errorf("storing intake row: %w", err)
	}
	rec.CreatedAt = createdAt

	entries, err := p.categoryEntries(ctx, rec, in)
	if err != nil {
		p.compensate(ctx, patientID)
		return "", 0, err
	}

	if err := p.vectors.Upsert(ctx, entries); err != nil {
		p.compensate(ctx, patientID)
		return "", 0, fmt.Errorf("storing category vectors: %w", err)
	}

	p.logger.Info("ingested patient record",
		"patient_id", patientID,
		"vector_count", len(entries))
	return patientID, len(entries), nil
}

// categoryEntries embeds each non-blank category and builds its index entry.
// A single provider failure aborts the batch; the pipeline never commits a
// partial category set.
func (p *Pipeline) categoryEntries(ctx context.Context, rec health.PatientRecord, in health.IntakeInput) ([]vecindex.Entry, error) {
	var entries []vecindex.Entry
	for _, category := range health.Categories() {
		text, ok := in.EmbeddableText(category)
		if !ok {
			continue
		}

		vector, err := p.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding %s: %w", category, err)
		}

		entries = append(entries, vecindex.Entry{
			ID:       vecindex.EntryID(rec.ID, category),
			Vector:   vector,
			Metadata: rec.VectorMetadata(category, text),
		})
	}
	return entries, nil
}

// compensate removes the already-inserted row after a downstream failure.
// Best effort: a failed delete is logged loudly since it leaves the known
// cross-store inconsistency the compensating action exists to prevent.
func (p *Pipeline) compensate(ctx context.Context, patientID string) {
	if err := p.records.Delete(ctx, patientID); err != nil {
		p.logger.Error("compensating delete failed, stores may be inconsistent",
			"patient_id", patientID,
			"error", err)
	}
}
