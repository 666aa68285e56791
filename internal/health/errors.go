package health

import "errors"

// Sentinel errors shared across the intake and retrieval core.
// These are part of the public API and should be checked with errors.Is().
//
// Example:
//
//	matches, err := engine.Retrieve(ctx, query, topK)
//	if errors.Is(err, health.ErrNotFound) {
//	    // fall back to an external knowledge source
//	}
var (
	// ErrStorageWrite indicates a failed write to the structured store.
	ErrStorageWrite = errors.New("structured store write failed")

	// ErrStorageRead indicates a failed read from the structured store.
	ErrStorageRead = errors.New("structured store read failed")

	// ErrEmbedding indicates the embedding provider failed or returned an
	// empty vector.
	ErrEmbedding = errors.New("embedding provider failed")

	// ErrVectorIndex indicates a failed vector index upsert or query.
	ErrVectorIndex = errors.New("vector index operation failed")

	// ErrNotFound indicates a retrieval produced zero index matches.
	ErrNotFound = errors.New("no similar patients found")

	// ErrValidation indicates invalid caller input (empty query, bad top_k).
	ErrValidation = errors.New("invalid input")
)
