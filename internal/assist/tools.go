package assist

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/smarthealth/healthnav/internal/health"
)

// searchInput is the model-facing shape of a similarity search request.
type searchInput struct {
	Query string `json:"query" jsonschema_description:"The health question or symptom description to match against stored records"`
	TopK  int    `json:"top_k,omitempty" jsonschema_description:"How many raw vector matches to consider; 0 uses the default"`
}

// placesInput is the model-facing shape of a nearby-place lookup.
type placesInput struct {
	Query       string `json:"query" jsonschema_description:"What to look for, e.g. 'pediatric hospital'"`
	Location    string `json:"location" jsonschema_description:"The area to search in, e.g. a city name"`
	CountryCode string `json:"country_code,omitempty" jsonschema_description:"Optional two-letter country code"`
}

// literatureInput is the model-facing shape of a literature search.
type literatureInput struct {
	Term string `json:"term" jsonschema_description:"The medical topic to search PubMed for"`
}

// RegisterTools exposes the assistant's handlers as Genkit tools so the
// model can call them during generation. Handlers whose collaborator is not
// configured are simply not registered, keeping the advertised tool set
// honest.
func (a *Assistant) RegisterTools(g *genkit.Genkit) {
	genkit.DefineTool(g, "storeHealthInfo",
		"Store a completed patient intake submission. Requires the full field set; "+
			"blank fields are allowed. Returns a confirmation with the new patient ID.",
		func(toolCtx *ai.ToolContext, in health.IntakeInput) (string, error) {
			return a.Ingest(toolCtx.Context, in)
		})

	genkit.DefineTool(g, "searchHealthRecords",
		"Search stored patient health records by similarity to a question or symptom "+
			"description. Returns matching patients with per-category similarity scores, "+
			"or reports that nothing relevant is stored.",
		func(toolCtx *ai.ToolContext, in searchInput) (string, error) {
			return a.answerHealthQuery(toolCtx.Context, in.Query, in.TopK)
		})

	if a.records != nil {
		genkit.DefineTool(g, "listRecentRecords",
			"List the most recently stored patient records.",
			func(toolCtx *ai.ToolContext, _ struct{}) (string, error) {
				return a.answerRecords(toolCtx.Context)
			})
	}

	if a.web != nil {
		genkit.DefineTool(g, "searchWeb",
			"Search the public web for general health information. Use when stored "+
				"records do not cover the question.",
			func(toolCtx *ai.ToolContext, in searchInput) (string, error) {
				results, err := a.web.Search(toolCtx.Context, in.Query, 3)
				if err != nil {
					return "", err
				}
				return FormatWebResults(results), nil
			})
	}

	if a.placesc != nil {
		genkit.DefineTool(g, "findNearbyPlaces",
			"Find hospitals, clinics or pharmacies near a location.",
			func(toolCtx *ai.ToolContext, in placesInput) (string, error) {
				found, err := a.placesc.Search(toolCtx.Context, in.Query, in.Location, in.CountryCode)
				if err != nil {
					return "", err
				}
				return FormatPlaces(in.Query, in.Location, found), nil
			})
	}

	if a.literature != nil {
		genkit.DefineTool(g, "searchLiterature",
			"Search PubMed for medical research articles on a topic.",
			func(toolCtx *ai.ToolContext, in literatureInput) (string, error) {
				articles, err := a.literature.Search(toolCtx.Context, in.Term, 5)
				if err != nil {
					return "", err
				}
				return FormatArticles(articles), nil
			})
	}
}
