package health

import (
	"testing"
)

func TestCategoriesCanonicalOrder(t *testing.T) {
	got := Categories()
	want := []Category{CategorySymptoms, CategoryDiagnosis, CategoryMedication}

	if len(got) != len(want) {
		t.Fatalf("Categories() returned %d categories, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Categories()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEmbeddableText(t *testing.T) {
	in := IntakeInput{
		Symptoms:          "  persistent cough  ",
		DiagnosisHistory:  "",
		MedicationHistory: "   ",
	}

	tests := []struct {
		category Category
		wantText string
		wantOK   bool
	}{
		{CategorySymptoms, "persistent cough", true},
		{CategoryDiagnosis, "", false},
		{CategoryMedication, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			text, ok := in.EmbeddableText(tt.category)
			if text != tt.wantText || ok != tt.wantOK {
				t.Errorf("EmbeddableText(%q) = (%q, %v), want (%q, %v)",
					tt.category, text, ok, tt.wantText, tt.wantOK)
			}
		})
	}
}

func TestRecordPreservesFields(t *testing.T) {
	in := IntakeInput{
		Name:              "Asha",
		Age:               "34",
		Gender:            "female",
		TreatmentHistory:  "physiotherapy",
		MedicationHistory: "ibuprofen",
		DiagnosisHistory:  "migraine",
		Symptoms:          "headache",
		Allergies:         "penicillin",
	}

	r := in.Record("p-123")

	if r.ID != "p-123" {
		t.Errorf("ID = %q, want p-123", r.ID)
	}
	if r.Name != in.Name || r.Age != in.Age || r.Gender != in.Gender {
		t.Errorf("identity fields not preserved: %+v", r)
	}
	if r.Symptoms != in.Symptoms || r.DiagnosisHistory != in.DiagnosisHistory ||
		r.MedicationHistory != in.MedicationHistory || r.TreatmentHistory != in.TreatmentHistory ||
		r.Allergies != in.Allergies {
		t.Errorf("clinical fields not preserved: %+v", r)
	}
	if !r.CreatedAt.IsZero() {
		t.Errorf("CreatedAt should be zero before insert, got %v", r.CreatedAt)
	}
}

func TestVectorMetadataDenormalizesRecord(t *testing.T) {
	r := IntakeInput{
		Name:     "Asha",
		Age:      "34",
		Symptoms: "headache",
	}.Record("p-123")

	meta := r.VectorMetadata(CategorySymptoms, "headache")

	want := map[string]string{
		MetaPatientID: "p-123",
		MetaName:      "Asha",
		MetaAge:       "34",
		MetaSymptoms:  "headache",
		MetaCategory:  "symptoms",
		MetaText:      "headache",
	}
	for k, v := range want {
		if meta[k] != v {
			t.Errorf("metadata[%q] = %q, want %q", k, meta[k], v)
		}
	}

	// Blank fields are carried as empty strings, never dropped.
	if _, ok := meta[MetaAllergies]; !ok {
		t.Error("blank allergies field missing from metadata")
	}
}
