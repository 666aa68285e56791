package assist

import (
	"fmt"
	"strings"
	"time"

	"github.com/smarthealth/healthnav/internal/places"
	"github.com/smarthealth/healthnav/internal/pubmed"
	"github.com/smarthealth/healthnav/internal/retrieval"
	"github.com/smarthealth/healthnav/internal/websearch"
)

// FormatIngestReceipt renders the confirmation for a stored submission.
func FormatIngestReceipt(name, patientID string, vectorCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stored the health record for %s.\n", name)
	fmt.Fprintf(&b, "Patient ID: %s\n", patientID)
	switch vectorCount {
	case 0:
		b.WriteString("No category fields were filled in, so the record is stored but will not surface in similarity search.")
	case 1:
		b.WriteString("Indexed 1 category for similarity search.")
	default:
		fmt.Fprintf(&b, "Indexed %d categories for similarity search.", vectorCount)
	}
	return b.String()
}

// FormatMatches renders authoritative retrieval matches, best first.
func FormatMatches(matches []retrieval.PatientMatch) string {
	if len(matches) == 0 {
		return "No matching patient history was found."
	}

	var b strings.Builder
	if len(matches) == 1 {
		b.WriteString("Based on one matching record in your health history:\n\n")
	} else {
		fmt.Fprintf(&b, "Based on %d matching records in your health history:\n\n", len(matches))
	}
	for i, m := range matches {
		r := m.Record
		fmt.Fprintf(&b, "%d. %s (%s, %s), similarity %.2f, matched on %s\n",
			i+1, r.Name, r.Age, r.Gender, m.Score, joinCategories(m.Categories))
		writeField(&b, "Symptoms", r.Symptoms)
		writeField(&b, "Diagnosis history", r.DiagnosisHistory)
		writeField(&b, "Medication history", r.MedicationHistory)
		writeField(&b, "Treatment history", r.TreatmentHistory)
		writeField(&b, "Allergies", r.Allergies)
	}
	b.WriteString("\nThis is drawn from stored records, not a medical opinion. Consult a clinician before acting on it.")
	return b.String()
}

func joinCategories[T ~string](cs []T) string {
	if len(cs) == 0 {
		return "no category"
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

func writeField(b *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	fmt.Fprintf(b, "   %s: %s\n", label, value)
}

// FormatWebResults renders the cited web fallback.
func FormatWebResults(results []websearch.Result) string {
	var b strings.Builder
	b.WriteString("I did not find a close match in your stored health history, so here is what a web search turned up:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
		fmt.Fprintf(&b, "   %s\n", r.Link)
	}
	b.WriteString("\nThese are general sources, not personal medical advice.")
	return b.String()
}

// FormatRecordRows renders the recent-records listing from ad hoc query rows.
func FormatRecordRows(rows []map[string]any) string {
	if len(rows) == 0 {
		return "No patient records are stored yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Most recent records (%d):\n\n", len(rows))
	for i, row := range rows {
		fmt.Fprintf(&b, "%d. %s, %s, %s",
			i+1, stringField(row, "name"), stringField(row, "age"), stringField(row, "gender"))
		if created := timeField(row, "created_at"); created != "" {
			fmt.Fprintf(&b, " (stored %s)", created)
		}
		b.WriteByte('\n')
		if d := stringField(row, "diagnosis_history"); d != "" && d != "-" {
			fmt.Fprintf(&b, "   Diagnosis history: %s\n", d)
		}
		fmt.Fprintf(&b, "   Patient ID: %s\n", stringField(row, "id"))
	}
	return b.String()
}

func stringField(row map[string]any, key string) string {
	v, ok := row[key]
	if !ok || v == nil {
		return "-"
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return "-"
	}
	return s
}

func timeField(row map[string]any, key string) string {
	t, ok := row[key].(time.Time)
	if !ok {
		return ""
	}
	return t.Format("2006-01-02")
}

// FormatArticles renders literature search results with links.
func FormatArticles(articles []pubmed.Article) string {
	if len(articles) == 0 {
		return "No PubMed articles matched that search."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Top PubMed results (%d):\n\n", len(articles))
	for i, a := range articles {
		fmt.Fprintf(&b, "%d. %s\n", i+1, a.Title)
		if len(a.Authors) > 0 {
			fmt.Fprintf(&b, "   %s\n", strings.Join(a.Authors, ", "))
		}
		fmt.Fprintf(&b, "   %s\n", a.URL)
	}
	return b.String()
}

// FormatPlaces renders nearby-place results with map links.
func FormatPlaces(query, location string, found []places.Place) string {
	if len(found) == 0 {
		return fmt.Sprintf("No places matching %q were found near %s.", query, location)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Places matching %q near %s:\n\n", query, location)
	for i, p := range found {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Name)
		if p.Address != "" {
			fmt.Fprintf(&b, "   %s\n", p.Address)
		}
		if p.Phone != "" {
			fmt.Fprintf(&b, "   Phone: %s\n", p.Phone)
		}
		if p.Rating > 0 {
			fmt.Fprintf(&b, "   Rating: %.1f\n", p.Rating)
		}
		if link := p.MapsLink(); link != "" {
			fmt.Fprintf(&b, "   Map: %s\n", link)
		}
	}
	return b.String()
}
