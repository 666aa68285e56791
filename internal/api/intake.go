package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/smarthealth/healthnav/internal/health"
)

// Ingestor is the write-path dependency of the intake endpoint.
type Ingestor interface {
	Ingest(ctx context.Context, in health.IntakeInput) (string, int, error)
}

type intakeHandler struct {
	pipeline Ingestor
	logger   *slog.Logger
}

type intakeResponse struct {
	PatientID   string `json:"patient_id"`
	VectorCount int    `json:"vector_count"`
}

// store handles POST /api/v1/intake.
func (h *intakeHandler) store(w http.ResponseWriter, r *http.Request) {
	var in health.IntakeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON", h.logger)
		return
	}

	patientID, vectorCount, err := h.pipeline.Ingest(r.Context(), in)
	if err != nil {
		writeCoreError(w, err, h.logger)
		return
	}

	h.logger.Info("intake stored", "patient_id", patientID, "vectors", vectorCount)
	writeJSON(w, http.StatusCreated, intakeResponse{
		PatientID:   patientID,
		VectorCount: vectorCount,
	}, h.logger)
}
