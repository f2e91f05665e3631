package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/legal
auth:
  secret_key: s3cret
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:8501"}, cfg.Server.CORSOrigins)
	assert.EqualValues(t, 10*1024*1024, cfg.Server.MaxUploadBytes)
	assert.Equal(t, 1500, cfg.RAG.ChunkSize)
	assert.Equal(t, 200, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 4, cfg.RAG.TopK)
	assert.Equal(t, 6, cfg.RAG.HistoryLimit)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, "pgdriver", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Backend)
}

func TestLoadConfigEmbeddingDimension(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/legal
auth:
  secret_key: s3cret
embed_llm:
  provider: ollama
  model: nomic-embed-text
  dimension: 768
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 768, cfg.EmbedLLM.Dimension)
	assert.Equal(t, "nomic-embed-text", cfg.EmbedLLM.Model)

	cfg, err = LoadConfig(writeConfig(t, "database:\n  url: postgres://localhost/legal\nauth:\n  secret_key: s3cret\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.EmbedLLM.Dimension)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://file/legal
auth:
  secret_key: from-file
`)
	t.Setenv("DATABASE_URL", "postgres://env/legal")
	t.Setenv("CORS_ORIGINS", " http://a.test, ,http://b.test ")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/legal", cfg.Database.URL)
	assert.Equal(t, "from-file", cfg.Auth.SecretKey)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadConfigMissingFileUsesEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/legal")
	t.Setenv("SECRET_KEY", "env-secret")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Auth.SecretKey)
}

func TestLoadConfigValidation(t *testing.T) {
	cases := map[string]string{
		"missing secret": `
database:
  url: postgres://localhost/legal
`,
		"bad driver": `
database:
  url: postgres://localhost/legal
  driver: mysql
auth:
  secret_key: x
`,
		"overlap too large": `
database:
  url: postgres://localhost/legal
auth:
  secret_key: x
rag:
  chunk_size: 100
  chunk_overlap: 100
`,
		"minio without bucket": `
database:
  url: postgres://localhost/legal
auth:
  secret_key: x
storage:
  backend: minio
  minio:
    endpoint: localhost:9000
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("SECRET_KEY", "")
			_, err := LoadConfig(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}
