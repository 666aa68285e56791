package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
)

// Validate checks configuration values. It returns sentinel errors that can
// be inspected with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// The Gemini key is read directly by Genkit, so the only place it can
	// fail fast is here.
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// gemini-embedding-001 supports truncation between 128 and 3072.
	if c.EmbeddingDim < 128 || c.EmbeddingDim > 3072 {
		return fmt.Errorf("%w: must be between 128 and 3072, got %d", ErrInvalidEmbeddingDim, c.EmbeddingDim)
	}

	// Scores are cosine similarities; a threshold outside (0, 1] either
	// accepts everything or nothing.
	if c.ScoreThreshold <= 0 || c.ScoreThreshold > 1 {
		return fmt.Errorf("%w: must be in (0, 1], got %.2f", ErrInvalidScoreThreshold, c.ScoreThreshold)
	}

	if c.TopK < 1 || c.TopK > 50 {
		return fmt.Errorf("%w: must be between 1 and 50, got %d", ErrInvalidTopK, c.TopK)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	if c.PostgresPassword == "healthnav_dev_password" {
		slog.Warn("Using default development password for PostgreSQL",
			"warning", "Change postgres_password in config.yaml for production deployments")
	}

	// Modern SSL modes only; allow/prefer are deprecated and MITM-prone.
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	if c.ServerAddr == "" {
		return fmt.Errorf("%w: server_addr cannot be empty", ErrInvalidServerAddr)
	}

	return nil
}

// WebSearchConfigured reports whether the Google Custom Search fallback has
// both credentials it needs.
func (c *Config) WebSearchConfigured() bool {
	return c.GoogleCSEKey != "" && c.GoogleCSEEngineID != ""
}

// PlacesConfigured reports whether the SerpApi places lookup is usable.
func (c *Config) PlacesConfigured() bool {
	return c.SerpAPIKey != ""
}
