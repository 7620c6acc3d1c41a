// Package file loads tessera configuration from a TOML file with
// environment variable fallbacks for secrets.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full tessera configuration.
type Config struct {
	OpenAI    OpenAIConfig    `toml:"openai"`
	Qdrant    QdrantConfig    `toml:"qdrant"`
	Cohere    CohereConfig    `toml:"cohere"`
	GitHub    GitHubConfig    `toml:"github"`
	Ingestion IngestionConfig `toml:"ingestion"`
	Retrieval RetrievalConfig `toml:"retrieval"`
}

// OpenAIConfig configures the OpenAI-backed services.
type OpenAIConfig struct {
	APIKey         string `toml:"api_key"`
	ChatModel      string `toml:"chat_model"`
	EmbeddingModel string `toml:"embedding_model"`
	Dimensions     int    `toml:"dimensions"`
}

// QdrantConfig configures the vector index.
type QdrantConfig struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
	Index  string `toml:"index"`
}

// CohereConfig configures the optional reranker. An empty API key
// disables reranking.
type CohereConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// GitHubConfig configures repository ingestion.
type GitHubConfig struct {
	Token string `toml:"token"`
}

// IngestionConfig tunes the chunking pipeline.
type IngestionConfig struct {
	MaxChunkTokens int    `toml:"max_chunk_tokens"`
	DataDir        string `toml:"data_dir"`
}

// RetrievalConfig tunes query-time behaviour.
type RetrievalConfig struct {
	TopK        int  `toml:"top_k"`
	UseReranker bool `toml:"use_reranker"`
}

// Default configuration values.
const (
	DefaultIndex          = "knowledge-base"
	DefaultTopK           = 5
	DefaultMaxChunkTokens = 512
)

// Load reads the configuration file, applies defaults and fills
// secrets from the environment when the file leaves them blank.
// If path is empty, defaults to ~/.tessera/config.toml. A missing
// file yields the defaults rather than an error.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".tessera", "config.toml")
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// No config file yet - defaults plus environment.
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to path, creating the directory if
// needed. If path is empty, defaults to ~/.tessera/config.toml. The
// file holds API keys, so it is written with restricted permissions.
func (c *Config) Save(path string) error {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".tessera", "config.toml")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Qdrant.APIKey == "" {
		c.Qdrant.APIKey = os.Getenv("QDRANT_API_KEY")
	}
	if c.Cohere.APIKey == "" {
		c.Cohere.APIKey = os.Getenv("COHERE_API_KEY")
	}
	if c.GitHub.Token == "" {
		c.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
}

func (c *Config) applyDefaults() {
	if c.Qdrant.Index == "" {
		c.Qdrant.Index = DefaultIndex
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = DefaultTopK
	}
	if c.Ingestion.MaxChunkTokens == 0 {
		c.Ingestion.MaxChunkTokens = DefaultMaxChunkTokens
	}
}

// Validate reports missing settings that every command needs.
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is not set (config file or OPENAI_API_KEY)")
	}
	return nil
}
