package config

import (
	"encoding/json"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		ModelName:        DefaultModelName,
		EmbedderModel:    DefaultEmbedderModel,
		EmbeddingDim:     DefaultEmbeddingDim,
		ScoreThreshold:   DefaultScoreThreshold,
		TopK:             3,
		PostgresHost:     "localhost",
		PostgresPort:     5432,
		PostgresUser:     "healthnav",
		PostgresPassword: "secret",
		PostgresDBName:   "healthnav",
		PostgresSSLMode:  "disable",
		ServerAddr:       ":8080",
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "test-api-key")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ModelName != DefaultModelName {
		t.Errorf("ModelName = %q, want %q", cfg.ModelName, DefaultModelName)
	}
	if cfg.EmbedderModel != DefaultEmbedderModel {
		t.Errorf("EmbedderModel = %q, want %q", cfg.EmbedderModel, DefaultEmbedderModel)
	}
	if cfg.EmbeddingDim != DefaultEmbeddingDim {
		t.Errorf("EmbeddingDim = %d, want %d", cfg.EmbeddingDim, DefaultEmbeddingDim)
	}
	if cfg.ScoreThreshold != DefaultScoreThreshold {
		t.Errorf("ScoreThreshold = %.2f, want %.2f", cfg.ScoreThreshold, DefaultScoreThreshold)
	}
	if cfg.TopK != 3 {
		t.Errorf("TopK = %d, want 3", cfg.TopK)
	}
	if cfg.ServerAddr != ":8080" {
		t.Errorf("ServerAddr = %q, want :8080", cfg.ServerAddr)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "test-api-key")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("HEALTHNAV_MODEL_NAME", "gemini-2.5-pro")
	t.Setenv("HEALTHNAV_SCORE_THRESHOLD", "0.8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ModelName != "gemini-2.5-pro" {
		t.Errorf("ModelName = %q, want env override", cfg.ModelName)
	}
	if cfg.ScoreThreshold != 0.8 {
		t.Errorf("ScoreThreshold = %.2f, want 0.8", cfg.ScoreThreshold)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", maskedValue},
		{"12345678", maskedValue},
		{"sk-1234567890abcdef", "sk" + "<" + maskedValue + ">" + "ef"},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.in); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMarshalJSONMasksSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.PostgresPassword = "super-secret-password"
	cfg.SerpAPIKey = "serpapi-secret-key"
	cfg.GoogleCSEKey = "cse-secret-key"
	cfg.NCBIAPIKey = "ncbi-secret-key"

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	s := string(data)

	for _, secret := range []string{"super-secret-password", "serpapi-secret-key", "cse-secret-key", "ncbi-secret-key"} {
		if strings.Contains(s, secret) {
			t.Errorf("marshaled config leaks %q", secret)
		}
	}
	if !strings.Contains(s, maskedValue) {
		t.Error("marshaled config carries no mask placeholder")
	}

	// String goes through the same path.
	if strings.Contains(cfg.String(), "super-secret-password") {
		t.Error("String() leaks the password")
	}
}

func TestFullModelName(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"gemini-2.5-flash", "googleai/gemini-2.5-flash"},
		{"googleai/gemini-2.5-pro", "googleai/gemini-2.5-pro"},
		{"vertexai/gemini-2.0", "vertexai/gemini-2.0"},
	}
	for _, tt := range tests {
		c := &Config{ModelName: tt.model}
		if got := c.FullModelName(); got != tt.want {
			t.Errorf("FullModelName(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}
