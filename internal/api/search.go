package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/smarthealth/healthnav/internal/retrieval"
)

// Retriever is the read-path dependency of the search endpoint.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]retrieval.PatientMatch, error)
}

type searchHandler struct {
	engine    Retriever
	threshold float32
	logger    *slog.Logger
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchResponse struct {
	Matches []searchMatch `json:"matches"`
}

// searchMatch adds the caller-facing confidence verdict to a raw match.
type searchMatch struct {
	retrieval.PatientMatch
	Authoritative bool `json:"authoritative"`
}

// search handles POST /api/v1/search. Matches below the confidence threshold
// are still returned, flagged authoritative=false, so callers can apply
// their own fallback.
func (h *searchHandler) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON", h.logger)
		return
	}

	matches, err := h.engine.Retrieve(r.Context(), req.Query, req.TopK)
	if err != nil {
		writeCoreError(w, err, h.logger)
		return
	}

	out := make([]searchMatch, len(matches))
	for i, m := range matches {
		out[i] = searchMatch{
			PatientMatch:  m,
			Authoritative: m.Authoritative(h.threshold),
		}
	}
	writeJSON(w, http.StatusOK, searchResponse{Matches: out}, h.logger)
}
