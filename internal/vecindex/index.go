// Package vecindex is the vector-index adapter: per-category patient
// embeddings in a pgvector table with cosine nearest-neighbor search.
//
// Entries are keyed by "{patient_id}_{category}", so re-ingesting the same
// patient and category overwrites rather than duplicates. Query results carry
// similarity scores and the denormalized metadata only, never raw vector
// values.
package vecindex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/smarthealth/healthnav/internal/health"
)

// Entry is one (id, vector, metadata) triple to upsert.
type Entry struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// Hit is one ranked query match. Score is cosine similarity in [-1, 1],
// higher is more similar.
type Hit struct {
	ID       string
	Score    float32
	Metadata map[string]string
}

// EntryID builds the composite vector key for a patient and category.
func EntryID(patientID string, category health.Category) string {
	return patientID + "_" + string(category)
}

// Index manages category vectors backed by PostgreSQL + pgvector.
//
// Index is safe for concurrent use by multiple goroutines.
type Index struct {
	pool   *pgxpool.Pool
	dim    int
	logger *slog.Logger
}

// New creates an Index and verifies that the category_vectors embedding
// column width matches dim. A mismatch between the index and the embedding
// provider is a configuration error, so it fails here at startup rather than
// corrupting data at runtime.
func New(ctx context.Context, pool *pgxpool.Pool, dim int, logger *slog.Logger) (*Index, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	if logger == nil {
		logger = slog.Default()
	}

	// atttypmod holds the declared vector(n) width for pgvector columns.
	var columnDim int
	err := pool.QueryRow(ctx,
		`SELECT atttypmod FROM pg_attribute
		 WHERE attrelid = 'category_vectors'::regclass AND attname = 'embedding'`,
	).Scan(&columnDim)
	if err != nil {
		return nil, fmt.Errorf("%w: reading embedding column dimension: %v", health.ErrVectorIndex, err)
	}
	if columnDim != dim {
		return nil, fmt.Errorf("embedding dimension mismatch: index column is vector(%d), provider emits %d", columnDim, dim)
	}

	return &Index{pool: pool, dim: dim, logger: logger}, nil
}

// Dimension reports the fixed vector width of the index.
func (ix *Index) Dimension() int {
	return ix.dim
}

// Upsert writes a batch of entries in one transaction. Idempotent per entry
// id: an existing id is overwritten. An empty batch is a no-op.
func (ix *Index) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if len(e.Vector) != ix.dim {
			return fmt.Errorf("%w: entry %s has %d dimensions, index wants %d",
				health.ErrValidation, e.ID, len(e.Vector), ix.dim)
		}
	}

	tx, err := ix.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: beginning upsert: %v", health.ErrVectorIndex, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, e := range entries {
		metadata, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("%w: marshaling metadata for %s: %v", health.ErrVectorIndex, e.ID, err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO category_vectors (id, embedding, metadata)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE
			 SET embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata`,
			e.ID, pgvector.NewVector(e.Vector), metadata,
		)
		if err != nil {
			return fmt.Errorf("%w: upserting %s: %v", health.ErrVectorIndex, e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: committing upsert: %v", health.ErrVectorIndex, err)
	}

	ix.logger.Debug("upserted category vectors", "count", len(entries))
	return nil
}

// Query returns the topK nearest entries to vector by cosine similarity,
// best first. Metadata is included; raw vector values are not.
func (ix *Index) Query(ctx context.Context, vector []float32, topK int) ([]Hit, error) {
	if len(vector) != ix.dim {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index wants %d",
			health.ErrValidation, len(vector), ix.dim)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", health.ErrValidation, topK)
	}

	rows, err := ix.pool.Query(ctx,
		`SELECT id, 1 - (embedding <=> $1) AS score, metadata
		 FROM category_vectors
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(vector), topK,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: querying: %v", health.ErrVectorIndex, err)
	}
	defer rows.Close()

	return scanHits(rows)
}

// scanHits converts query rows into Hits, tolerating unreadable metadata.
func scanHits(rows pgx.Rows) ([]Hit, error) {
	var hits []Hit
	for rows.Next() {
		var (
			hit Hit
			raw []byte
		)
		if err := rows.Scan(&hit.ID, &hit.Score, &raw); err != nil {
			return nil, fmt.Errorf("%w: scanning hit: %v", health.ErrVectorIndex, err)
		}
		// Malformed metadata degrades to an empty map; the retrieval engine
		// substitutes explicit unknown markers per field.
		if err := json.Unmarshal(raw, &hit.Metadata); err != nil || hit.Metadata == nil {
			hit.Metadata = map[string]string{}
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading hits: %v", health.ErrVectorIndex, err)
	}
	return hits, nil
}
