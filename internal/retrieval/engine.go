// Package retrieval implements the similarity retrieval and aggregation
// engine: embed a free-text query, collect the nearest category vectors, and
// reconcile them back into whole-patient matches.
//
// The engine exposes raw similarity scores and leaves the confidence policy
// to its caller: whether a 0.64 match is "good enough" is the assistant's
// decision, not the engine's. DefaultScoreThreshold is the recommended cut.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/smarthealth/healthnav/internal/health"
	"github.com/smarthealth/healthnav/internal/vecindex"
)

const (
	// DefaultScoreThreshold is the similarity score at and above which a
	// match should be treated as authoritative personal history rather than
	// a weak association worth replacing with general knowledge.
	DefaultScoreThreshold float32 = 0.65

	// DefaultTopK bounds the raw vector hits requested per query when the
	// caller passes zero. It bounds index hits, not distinct patients: one
	// patient can occupy up to three of those slots.
	DefaultTopK = 3

	// MaxTopK is the largest accepted top_k.
	MaxTopK = 50
)

// Embedder generates a fixed-length vector for one text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorQuerier is the vector-index surface the engine needs.
// *vecindex.Index satisfies this in production.
type VectorQuerier interface {
	Query(ctx context.Context, vector []float32, topK int) ([]vecindex.Hit, error)
}

// PatientMatch is one reconciled patient in a retrieval result. Score is the
// maximum similarity observed across the patient's matched categories.
type PatientMatch struct {
	Record     health.PatientRecord `json:"record"`
	Score      float32              `json:"score"`
	Categories []health.Category    `json:"categories"`
}

// Authoritative reports whether the match clears the given score threshold.
// Pass DefaultScoreThreshold unless the caller has a reason to override it.
func (m PatientMatch) Authoritative(threshold float32) bool {
	return m.Score >= threshold
}

// Engine answers similarity queries over ingested patient records.
//
// Engine is safe for concurrent use by multiple goroutines.
type Engine struct {
	index    VectorQuerier
	embedder Embedder
	logger   *slog.Logger
}

// New creates a retrieval Engine.
func New(index VectorQuerier, embedder Embedder, logger *slog.Logger) (*Engine, error) {
	if index == nil {
		return nil, fmt.Errorf("vector index is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{index: index, embedder: embedder, logger: logger}, nil
}

// Retrieve embeds query, fetches the topK nearest category vectors and
// groups them into per-patient matches ordered by descending score. Ties
// keep the order in which a patient first appeared in the raw hit list.
//
// topK == 0 selects DefaultTopK. Zero index matches is reported as
// health.ErrNotFound, never as an empty success.
func (e *Engine) Retrieve(ctx context.Context, query string, topK int) ([]PatientMatch, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query text is empty", health.ErrValidation)
	}
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK < 0 || topK > MaxTopK {
		return nil, fmt.Errorf("%w: top_k must be between 1 and %d, got %d", health.ErrValidation, MaxTopK, topK)
	}

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := e.index.Query(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	if len(hits) == 0 {
		return nil, health.ErrNotFound
	}

	matches := groupByPatient(hits)
	e.logger.Debug("retrieved similar patients",
		"raw_hits", len(hits),
		"patients", len(matches),
		"best_score", matches[0].Score)
	return matches, nil
}

// groupByPatient collapses category-level hits into one match per patient.
// Single pass over the raw hits with an ordered aggregate per patient_id:
// display fields come from the first-seen metadata (identical across a
// patient's categories by construction) and the score is the group maximum.
func groupByPatient(hits []vecindex.Hit) []PatientMatch {
	byPatient := make(map[string]int, len(hits))
	matches := make([]PatientMatch, 0, len(hits))

	for _, hit := range hits {
		pid := metaOr(hit.Metadata, health.MetaPatientID)

		i, seen := byPatient[pid]
		if !seen {
			byPatient[pid] = len(matches)
			matches = append(matches, PatientMatch{
				Record: recordFromMetadata(pid, hit.Metadata),
				Score:  hit.Score,
			})
			i = len(matches) - 1
		}

		if hit.Score > matches[i].Score {
			matches[i].Score = hit.Score
		}
		if c, ok := hit.Metadata[health.MetaCategory]; ok && c != "" {
			matches[i].Categories = append(matches[i].Categories, health.Category(c))
		}
	}

	// Stable: equal scores preserve first-appearance order from the index's
	// own ranking.
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	return matches
}

// recordFromMetadata rebuilds a display record from denormalized hit
// metadata. Missing or blank fields get the explicit unknown marker; a bad
// entry degrades field by field instead of failing the call.
func recordFromMetadata(patientID string, m map[string]string) health.PatientRecord {
	return health.PatientRecord{
		ID:                patientID,
		Name:              metaOr(m, health.MetaName),
		Age:               metaOr(m, health.MetaAge),
		Gender:            metaOr(m, health.MetaGender),
		TreatmentHistory:  metaOr(m, health.MetaTreatmentHistory),
		MedicationHistory: metaOr(m, health.MetaMedicationHistory),
		DiagnosisHistory:  metaOr(m, health.MetaDiagnosisHistory),
		Symptoms:          metaOr(m, health.MetaSymptoms),
		Allergies:         metaOr(m, health.MetaAllergies),
	}
}

func metaOr(m map[string]string, key string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return health.Unknown
}
