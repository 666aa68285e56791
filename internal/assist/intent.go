package assist

import (
	"context"
	"strings"
)

// Intent is the routed destination for one user message.
type Intent string

const (
	// IntentIntake - the user wants to register or store health data.
	IntentIntake Intent = "intake"

	// IntentHealthQuery - symptoms, conditions, medications, advice; answered
	// from personal history when the similarity score clears the threshold.
	IntentHealthQuery Intent = "health_query"

	// IntentRecords - explicit requests for stored records or history rows.
	IntentRecords Intent = "records"

	// IntentLiterature - medical literature and research lookups.
	IntentLiterature Intent = "literature"

	// IntentLocation - nearby hospitals, clinics, pharmacies.
	IntentLocation Intent = "location"

	// IntentGeneral - everything else; answered by the model directly.
	IntentGeneral Intent = "general"
)

// Classifier maps a user message to an Intent. The production classifier
// delegates to the language model; ClassifyKeywords is the deterministic
// fallback when the model is unavailable or answers off-vocabulary.
type Classifier interface {
	Classify(ctx context.Context, message string) (Intent, error)
}

// keyword groups for the fallback classifier, checked in order. First group
// with a hit wins, so the more specific intents come first.
var keywordIntents = []struct {
	intent   Intent
	keywords []string
}{
	{IntentIntake, []string{"register", "add health data", "store my", "save my", "record my"}},
	{IntentLocation, []string{"hospital", "clinic", "pharmacy", "nearby", "near me"}},
	{IntentLiterature, []string{"pubmed", "research", "study", "studies", "paper", "literature"}},
	{IntentRecords, []string{"my records", "old records", "patient info", "patient record", "history rows", "show record"}},
	{IntentHealthQuery, []string{"symptom", "pain", "ache", "fever", "diagnos", "medication", "medicine", "treatment", "allerg", "nausea", "headache", "advice"}},
}

// ClassifyKeywords is the deterministic intent fallback. It never errors;
// messages with no recognized vocabulary route to IntentGeneral.
func ClassifyKeywords(message string) Intent {
	lower := strings.ToLower(message)
	for _, group := range keywordIntents {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.intent
			}
		}
	}
	return IntentGeneral
}

// parseIntent maps a model's answer back onto the enumerated intents.
// Unrecognized answers report false so the caller can fall back.
func parseIntent(s string) (Intent, bool) {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentIntake:
		return IntentIntake, true
	case IntentHealthQuery:
		return IntentHealthQuery, true
	case IntentRecords:
		return IntentRecords, true
	case IntentLiterature:
		return IntentLiterature, true
	case IntentLocation:
		return IntentLocation, true
	case IntentGeneral:
		return IntentGeneral, true
	default:
		return IntentGeneral, false
	}
}
