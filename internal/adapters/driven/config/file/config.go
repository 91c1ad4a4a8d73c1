// Package file loads configuration from a TOML file layered with
// environment variables. A .env file in the working directory is read
// first, so local setups can keep credentials out of the config file.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config is the full CLI configuration.
type Config struct {
	Chunking  ChunkingConfig  `toml:"chunking"`
	Session   SessionConfig   `toml:"session"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	CSV       CSVConfig       `toml:"csv"`
	Search    SearchConfig    `toml:"search"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Analysis  AnalysisConfig  `toml:"analysis"`
}

// ChunkingConfig holds the base chunking parameters that per-format
// policies scale from.
type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// SessionConfig controls session lifecycle behaviour.
type SessionConfig struct {
	TimeoutMinutes int  `toml:"timeout_minutes"`
	CleanupOnExit  bool `toml:"cleanup_on_exit"`
}

// RetrievalConfig controls retrieval behaviour.
type RetrievalConfig struct {
	TopK int `toml:"top_k"`
}

// CSVConfig names the columns the CSV normaliser reads.
type CSVConfig struct {
	ContentColumn string `toml:"content_column"`
	TitleColumn   string `toml:"title_column"`
}

// SearchConfig configures the remote search service. An empty endpoint
// selects the in-memory index.
type SearchConfig struct {
	Endpoint string `toml:"endpoint"`
	APIKey   string `toml:"api_key"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider          string  `toml:"provider"`
	BaseURL           string  `toml:"base_url"`
	APIKey            string  `toml:"api_key"`
	Model             string  `toml:"model"`
	Dimensions        int     `toml:"dimensions"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// LLMConfig configures the answer-generation provider.
type LLMConfig struct {
	Provider string `toml:"provider"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
}

// AnalysisConfig configures the document analysis service used for
// image-based PDFs. Both fields empty disables the service.
type AnalysisConfig struct {
	Endpoint string `toml:"endpoint"`
	APIKey   string `toml:"api_key"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Chunking:  ChunkingConfig{Size: 1000, Overlap: 200},
		Session:   SessionConfig{TimeoutMinutes: 60},
		Retrieval: RetrievalConfig{TopK: 5},
		CSV:       CSVConfig{ContentColumn: "description", TitleColumn: "name"},
		Embedding: EmbeddingConfig{Provider: "openai", RequestsPerSecond: 10},
		LLM:       LLMConfig{Provider: "openai"},
	}
}

// Load builds the effective configuration: defaults, then the TOML
// file, then environment variables. If configDir is empty the file is
// looked up at ~/.datatalk/config.toml; a missing file is fine.
func Load(configDir string) (*Config, error) {
	// Best effort; absence of a .env file is normal.
	_ = godotenv.Load()

	cfg := Default()

	path, err := configPath(configDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	applyEnv(&cfg)
	return &cfg, nil
}

func configPath(configDir string) (string, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".datatalk")
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// applyEnv layers environment variables over the loaded config.
func applyEnv(cfg *Config) {
	setString(&cfg.Search.Endpoint, "AZURE_SEARCH_ENDPOINT")
	setString(&cfg.Search.APIKey, "AZURE_SEARCH_API_KEY")

	// OPENAI_API_KEY is the generic fallback; the Azure-specific
	// variables win when both are set.
	setString(&cfg.Embedding.APIKey, "OPENAI_API_KEY")
	setString(&cfg.Embedding.APIKey, "AZURE_OPENAI_API_KEY")
	setString(&cfg.Embedding.BaseURL, "AZURE_OPENAI_API_BASE")
	setString(&cfg.Embedding.Model, "EMBEDDING_MODEL")
	setInt(&cfg.Embedding.Dimensions, "EMBEDDING_DIMENSIONS")

	setString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	setString(&cfg.LLM.APIKey, "AZURE_OPENAI_API_KEY")
	setString(&cfg.LLM.BaseURL, "AZURE_OPENAI_API_BASE")
	setString(&cfg.LLM.Model, "LLM_MODEL")

	setString(&cfg.Analysis.Endpoint, "DOCUMENT_INTELLIGENCE_ENDPOINT")
	setString(&cfg.Analysis.APIKey, "DOCUMENT_INTELLIGENCE_API_KEY")

	setInt(&cfg.Session.TimeoutMinutes, "SESSION_TIMEOUT_MINUTES")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
