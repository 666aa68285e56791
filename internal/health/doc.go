// Package health defines the shared domain model for the patient-intake and
// similarity-retrieval core: the structured patient record, the enumerated
// embeddable categories, and the sentinel errors every adapter and pipeline
// in this module reports through.
//
// The package holds no behavior beyond validation and category mapping; the
// write path lives in internal/intake and the read path in internal/retrieval.
package health
