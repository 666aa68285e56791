// Package assist is the conversational routing layer around the intake and
// retrieval core. It classifies each user message, dispatches to the right
// handler (ingestion, similarity retrieval, record lookup, web search,
// nearby places, literature search, or a direct model answer) and renders
// the structured results into prose.
//
// The core contracts stay structured: internal/intake and internal/retrieval
// return data, and everything user-facing about wording lives here. The
// confidence policy also lives here. The retrieval engine reports scores,
// and this layer decides that matches below the threshold are answered from
// an external knowledge source instead of personal history.
package assist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/smarthealth/healthnav/internal/health"
	"github.com/smarthealth/healthnav/internal/places"
	"github.com/smarthealth/healthnav/internal/pubmed"
	"github.com/smarthealth/healthnav/internal/retrieval"
	"github.com/smarthealth/healthnav/internal/websearch"
)

// Ingestor is the write-path surface of the core.
// *intake.Pipeline satisfies this in production.
type Ingestor interface {
	Ingest(ctx context.Context, in health.IntakeInput) (string, int, error)
}

// Retriever is the read-path surface of the core.
// *retrieval.Engine satisfies this in production.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]retrieval.PatientMatch, error)
}

// RecordQuerier runs guarded ad hoc reads against the structured store.
// *patientstore.Store satisfies this in production.
type RecordQuerier interface {
	Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error)
}

// WebSearcher is the low-confidence fallback knowledge source.
type WebSearcher interface {
	Search(ctx context.Context, query string, num int) ([]websearch.Result, error)
}

// PlaceFinder locates nearby care facilities.
type PlaceFinder interface {
	Search(ctx context.Context, query, location, countryCode string) ([]places.Place, error)
}

// LiteratureSearcher finds ranked article summaries.
type LiteratureSearcher interface {
	Search(ctx context.Context, term string, retMax int) ([]pubmed.Article, error)
}

// Generator produces one model completion for one prompt. The production
// implementation wraps Genkit; tests substitute a canned fake.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config tunes the assistant's routing policy.
type Config struct {
	// ScoreThreshold is the similarity score at and above which retrieval
	// results are treated as authoritative personal history. Zero selects
	// retrieval.DefaultScoreThreshold.
	ScoreThreshold float32

	// TopK bounds raw vector hits per retrieval. Zero selects the engine
	// default.
	TopK int

	// CacheItems bounds the response cache. Zero selects the default.
	CacheItems int
}

// Assistant routes user messages across the intake/retrieval core and the
// external handlers.
//
// Optional collaborators (web, places, literature, generator) may be nil;
// the affected handlers then degrade to an honest "not configured" reply
// rather than fabricating content.
type Assistant struct {
	classifier Classifier
	ingestor   Ingestor
	retriever  Retriever
	records    RecordQuerier
	web        WebSearcher
	placesc    PlaceFinder
	literature LiteratureSearcher
	generator  Generator
	cfg        Config
	cache      *responseCache
	logger     *slog.Logger
}

// New creates an Assistant. classifier, ingestor and retriever are
// required; the remaining collaborators are optional.
func New(classifier Classifier, ingestor Ingestor, retriever Retriever, opts Options) (*Assistant, error) {
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if ingestor == nil {
		return nil, fmt.Errorf("ingestor is required")
	}
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg.ScoreThreshold == 0 {
		cfg.ScoreThreshold = retrieval.DefaultScoreThreshold
	}

	return &Assistant{
		classifier: classifier,
		ingestor:   ingestor,
		retriever:  retriever,
		records:    opts.Records,
		web:        opts.Web,
		placesc:    opts.Places,
		literature: opts.Literature,
		generator:  opts.Generator,
		cfg:        cfg,
		cache:      newResponseCache(cfg.CacheItems),
		logger:     logger,
	}, nil
}

// Options carries the optional Assistant collaborators.
type Options struct {
	Records    RecordQuerier
	Web        WebSearcher
	Places     PlaceFinder
	Literature LiteratureSearcher
	Generator  Generator
	Config     Config
	Logger     *slog.Logger
}

// Respond answers one user message. Read-path replies for identical inputs
// are cached; anything that writes is never cached.
func (a *Assistant) Respond(ctx context.Context, message string) (string, error) {
	if message == "" {
		return "", fmt.Errorf("%w: message is empty", health.ErrValidation)
	}

	if reply, ok := a.cache.get(message); ok {
		return reply, nil
	}

	intent, err := a.classifier.Classify(ctx, message)
	if err != nil {
		a.logger.Warn("intent classification failed, using keyword fallback", "error", err)
		intent = ClassifyKeywords(message)
	}
	a.logger.Debug("routed message", "intent", intent)

	var reply string
	switch intent {
	case IntentIntake:
		// Field collection is a conversation, not a single message; point
		// the user at the structured intake entry point.
		return intakeInstructions, nil
	case IntentHealthQuery:
		reply, err = a.answerHealthQuery(ctx, message, 0)
	case IntentRecords:
		reply, err = a.answerRecords(ctx)
	case IntentLiterature:
		reply, err = a.answerLiterature(ctx, message)
	case IntentLocation:
		reply, err = a.answerLocation(ctx, message)
	default:
		reply, err = a.answerGeneral(ctx, message)
	}
	if err != nil {
		return "", err
	}

	a.cache.put(message, reply)
	return reply, nil
}

// Ingest forwards a completed structured submission to the pipeline and
// renders the confirmation. This is the conversational layer's write entry
// point (HTTP intake and the storeHealthInfo tool both land here).
func (a *Assistant) Ingest(ctx context.Context, in health.IntakeInput) (string, error) {
	patientID, vectorCount, err := a.ingestor.Ingest(ctx, in)
	if err != nil {
		return "", err
	}
	return FormatIngestReceipt(in.Name, patientID, vectorCount), nil
}

// answerHealthQuery applies the confidence policy: an authoritative match
// (score at or above the threshold) is answered from personal history; a
// weak match or no match falls back to web search, then to the model.
// topK overrides the configured hit budget; zero or negative keeps it.
func (a *Assistant) answerHealthQuery(ctx context.Context, message string, topK int) (string, error) {
	if topK <= 0 {
		topK = a.cfg.TopK
	}
	matches, err := a.retriever.Retrieve(ctx, message, topK)
	switch {
	case errors.Is(err, health.ErrNotFound):
		a.logger.Debug("no personal history matched, falling back")
		return a.answerFallback(ctx, message)
	case err != nil:
		return "", err
	}

	if !matches[0].Authoritative(a.cfg.ScoreThreshold) {
		a.logger.Debug("best match below threshold, falling back",
			"score", matches[0].Score,
			"threshold", a.cfg.ScoreThreshold)
		return a.answerFallback(ctx, message)
	}

	authoritative := matches[:0:0]
	for _, m := range matches {
		if m.Authoritative(a.cfg.ScoreThreshold) {
			authoritative = append(authoritative, m)
		}
	}
	return FormatMatches(authoritative), nil
}

// answerFallback prefers cited web results over model-only answers for
// low-confidence health questions.
func (a *Assistant) answerFallback(ctx context.Context, message string) (string, error) {
	if a.web != nil {
		results, err := a.web.Search(ctx, message, 3)
		if err != nil {
			a.logger.Warn("web search fallback failed", "error", err)
		} else if len(results) > 0 {
			return FormatWebResults(results), nil
		}
	}
	return a.answerGeneral(ctx, message)
}

func (a *Assistant) answerRecords(ctx context.Context) (string, error) {
	if a.records == nil {
		return "Record lookup is not configured.", nil
	}
	rows, err := a.records.Query(ctx,
		`SELECT id, name, age, gender, diagnosis_history, created_at
		 FROM health_info ORDER BY created_at DESC LIMIT 10`)
	if err != nil {
		return "", err
	}
	return FormatRecordRows(rows), nil
}

func (a *Assistant) answerLiterature(ctx context.Context, message string) (string, error) {
	if a.literature == nil {
		return "Literature search is not configured.", nil
	}
	articles, err := a.literature.Search(ctx, message, 5)
	if err != nil {
		return "", err
	}
	return FormatArticles(articles), nil
}

func (a *Assistant) answerLocation(ctx context.Context, message string) (string, error) {
	if a.placesc == nil {
		return "Location search is not configured.", nil
	}
	query, location, countryCode, err := places.ParseQuery(message)
	if err != nil {
		return locationInstructions, nil
	}
	found, err := a.placesc.Search(ctx, query, location, countryCode)
	if err != nil {
		return "", err
	}
	return FormatPlaces(query, location, found), nil
}

func (a *Assistant) answerGeneral(ctx context.Context, message string) (string, error) {
	if a.generator == nil {
		return "I could not find anything reliable for that, and no answer model is configured.", nil
	}
	return a.generator.Generate(ctx, message)
}

const intakeInstructions = `To register your health data I need these fields: ` +
	`name, age, gender, treatment history, medication history, diagnosis history, ` +
	`symptoms and allergies. Blank fields are fine. Submit them together and I ` +
	`will store the record with a patient ID you can refer back to.`

const locationInstructions = `To search nearby places, send: what you are looking ` +
	`for, the area, and an optional two-letter country code, separated by "|". ` +
	`For example: pediatric hospital | Chennai | in`
