package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[openai]
api_key = "sk-file"
chat_model = "gpt-4o"
embedding_model = "text-embedding-3-small"
dimensions = 512

[qdrant]
url = "http://qdrant.local:6333"
index = "kb"

[retrieval]
top_k = 8
use_reranker = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-file", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.ChatModel)
	assert.Equal(t, 512, cfg.OpenAI.Dimensions)
	assert.Equal(t, "http://qdrant.local:6333", cfg.Qdrant.URL)
	assert.Equal(t, "kb", cfg.Qdrant.Index)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.True(t, cfg.Retrieval.UseReranker)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultIndex, cfg.Qdrant.Index)
	assert.Equal(t, DefaultTopK, cfg.Retrieval.TopK)
	assert.Equal(t, DefaultMaxChunkTokens, cfg.Ingestion.MaxChunkTokens)
}

func TestLoad_EnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("GITHUB_TOKEN", "gh-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "gh-env", cfg.GitHub.Token)
}

func TestLoad_FileBeatsEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")

	path := writeConfig(t, `
[openai]
api_key = "sk-file"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-file", cfg.OpenAI.APIKey)
}

func TestLoad_BadTOML(t *testing.T) {
	path := writeConfig(t, "not [valid toml")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveReload_PreservesData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := &Config{}
	cfg.OpenAI.APIKey = "sk-saved"
	cfg.OpenAI.ChatModel = "gpt-4o"
	cfg.Qdrant.Index = "kb"
	cfg.Retrieval.TopK = 3
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-saved", loaded.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", loaded.OpenAI.ChatModel)
	assert.Equal(t, "kb", loaded.Qdrant.Index)
	assert.Equal(t, 3, loaded.Retrieval.TopK)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Validate())

	cfg.OpenAI.APIKey = "sk-test"
	assert.NoError(t, cfg.Validate())
}
