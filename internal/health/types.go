package health

import (
	"strings"
	"time"
)

// Unknown is the explicit marker substituted for metadata fields that are
// missing or malformed in a vector index match. Retrieval never fails a whole
// call over one bad field, and never fabricates a value either.
const Unknown = "unknown"

// Category identifies one independently embedded clinical field.
type Category string

// The three embeddable categories. A patient has at most one vector per
// category; blank source fields produce no vector at all.
const (
	CategorySymptoms   Category = "symptoms"
	CategoryDiagnosis  Category = "diagnosis"
	CategoryMedication Category = "medication"
)

// IntakeInput is a completed intake submission. All fields are free text;
// empty strings are permitted and simply suppress the matching category
// vector.
type IntakeInput struct {
	Name              string `json:"name"`
	Age               string `json:"age"`
	Gender            string `json:"gender"`
	TreatmentHistory  string `json:"treatment_history"`
	MedicationHistory string `json:"medication_history"`
	DiagnosisHistory  string `json:"diagnosis_history"`
	Symptoms          string `json:"symptoms"`
	Allergies         string `json:"allergies"`
}

// PatientRecord is one durable row in the structured store. Created exactly
// once per intake; never updated or deleted by the core (the compensating
// delete on a failed vector write is the single exception).
type PatientRecord struct {
	ID                string    `json:"patient_id"`
	Name              string    `json:"name"`
	Age               string    `json:"age"`
	Gender            string    `json:"gender"`
	TreatmentHistory  string    `json:"treatment_history"`
	MedicationHistory string    `json:"medication_history"`
	DiagnosisHistory  string    `json:"diagnosis_history"`
	Symptoms          string    `json:"symptoms"`
	Allergies         string    `json:"allergies"`
	CreatedAt         time.Time `json:"created_at"`
}

// Record builds the PatientRecord for this submission. CreatedAt is left
// zero; the structured store stamps it at insert time.
func (in IntakeInput) Record(patientID string) PatientRecord {
	return PatientRecord{
		ID:                patientID,
		Name:              in.Name,
		Age:               in.Age,
		Gender:            in.Gender,
		TreatmentHistory:  in.TreatmentHistory,
		MedicationHistory: in.MedicationHistory,
		DiagnosisHistory:  in.DiagnosisHistory,
		Symptoms:          in.Symptoms,
		Allergies:         in.Allergies,
	}
}

// CategoryText maps each embeddable category to its source field in the
// submission. Iterating this mapping, rather than branching per field, is
// what keeps adding a fourth category a one-line change.
func (in IntakeInput) CategoryText() map[Category]string {
	return map[Category]string{
		CategorySymptoms:   in.Symptoms,
		CategoryDiagnosis:  in.DiagnosisHistory,
		CategoryMedication: in.MedicationHistory,
	}
}

// Categories lists the embeddable categories in their canonical order.
// Map iteration order is not stable, so callers that care about ordering
// (vector ids, tests) iterate this slice and look up CategoryText.
func Categories() []Category {
	return []Category{CategorySymptoms, CategoryDiagnosis, CategoryMedication}
}

// Metadata keys used in category vector entries. The vector index stores a
// denormalized copy of the whole record so retrieval can display a patient
// without a second store round trip.
const (
	MetaPatientID         = "patient_id"
	MetaName              = "name"
	MetaAge               = "age"
	MetaGender            = "gender"
	MetaTreatmentHistory  = "treatment_history"
	MetaMedicationHistory = "medication_history"
	MetaDiagnosisHistory  = "diagnosis_history"
	MetaSymptoms          = "symptoms"
	MetaAllergies         = "allergies"
	MetaCategory          = "category"
	MetaText              = "text"
)

// VectorMetadata builds the denormalized metadata for one category vector:
// the full record plus the category tag and the exact text that was embedded.
func (r PatientRecord) VectorMetadata(c Category, text string) map[string]string {
	return map[string]string{
		MetaPatientID:         r.ID,
		MetaName:              r.Name,
		MetaAge:               r.Age,
		MetaGender:            r.Gender,
		MetaTreatmentHistory:  r.TreatmentHistory,
		MetaMedicationHistory: r.MedicationHistory,
		MetaDiagnosisHistory:  r.DiagnosisHistory,
		MetaSymptoms:          r.Symptoms,
		MetaAllergies:         r.Allergies,
		MetaCategory:          string(c),
		MetaText:              text,
	}
}

// EmbeddableText returns the trimmed text for a category and whether it is
// non-blank. Blank fields are the signal for vector sparsity: no vector is
// produced for them.
func (in IntakeInput) EmbeddableText(c Category) (string, bool) {
	text := strings.TrimSpace(in.CategoryText()[c])
	return text, text != ""
}
