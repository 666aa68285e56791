package assist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

const classifyPrompt = `Classify the user message into exactly one of these intents:
intake - the user wants to register, store or update their health data
health_query - questions about symptoms, conditions, medications or treatment
records - the user asks to see stored patient records or history rows
literature - requests for medical research, studies or papers
location - requests for nearby hospitals, clinics, pharmacies or doctors
general - anything else

Answer with the intent name only, no punctuation or explanation.

Message: %s`

// ModelClassifier asks the language model to pick an intent. Off-vocabulary
// answers are reported as errors so the caller can fall back to keywords.
type ModelClassifier struct {
	g         *genkit.Genkit
	modelName string
	logger    *slog.Logger
}

// NewModelClassifier creates a model-backed intent classifier. modelName is
// provider-qualified, e.g. "googleai/gemini-2.5-flash".
func NewModelClassifier(g *genkit.Genkit, modelName string, logger *slog.Logger) *ModelClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelClassifier{g: g, modelName: modelName, logger: logger}
}

// Classify implements Classifier.
func (c *ModelClassifier) Classify(ctx context.Context, message string) (Intent, error) {
	response, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(fmt.Sprintf(classifyPrompt, message)))),
	)
	if err != nil {
		return IntentGeneral, fmt.Errorf("classifying intent: %w", err)
	}

	answer := strings.TrimSpace(response.Text())
	intent, ok := parseIntent(answer)
	if !ok {
		return IntentGeneral, fmt.Errorf("model returned unknown intent %q", answer)
	}
	return intent, nil
}

const generateSystemPrompt = `You are a careful health navigation assistant.
Answer plainly and concisely. For anything that sounds like a medical
decision, remind the user to consult a clinician. Never invent patient data.`

// ModelGenerator produces direct model completions for messages that no
// structured handler claims.
type ModelGenerator struct {
	g         *genkit.Genkit
	modelName string
}

// NewModelGenerator creates a Genkit-backed Generator.
func NewModelGenerator(g *genkit.Genkit, modelName string) *ModelGenerator {
	return &ModelGenerator{g: g, modelName: modelName}
}

// Generate implements Generator.
func (m *ModelGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := genkit.Generate(ctx, m.g,
		ai.WithModelName(m.modelName),
		ai.WithSystem(generateSystemPrompt),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(prompt))),
	)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	return response.Text(), nil
}
