package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Snippet.MaxTokens)
	assert.Equal(t, 3, cfg.Snippet.MaxSentences)
	assert.Equal(t, 6, cfg.Snippet.CandidateLimit())
	assert.Equal(t, " ... ", cfg.Snippet.Separator)
	assert.Equal(t, 60, cfg.Indexer.BenchmarkLength)
	assert.Equal(t, "file", cfg.Document.Source)
	assert.Equal(t, "utf-8", cfg.Document.Charset)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
document:
  path: /srv/docs/novel.txt
  charset: windows-1251
snippet:
  maxSentences: 2
  messages:
    noMatch: "Ничего не найдено"
redis:
  cacheTTL: 5m
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/docs/novel.txt", cfg.Document.Path)
	assert.Equal(t, "windows-1251", cfg.Document.Charset)
	assert.Equal(t, 2, cfg.Snippet.MaxSentences)
	assert.Equal(t, 4, cfg.Snippet.CandidateLimit())
	assert.Equal(t, "Ничего не найдено", cfg.Snippet.Messages.NoMatch)
	assert.Equal(t, "Empty query", cfg.Snippet.Messages.EmptyQuery, "unset fields keep defaults")
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SP_DOCUMENT_PATH", "/tmp/other.txt")
	t.Setenv("SP_SNIPPET_MAX_TOKENS", "7")
	t.Setenv("SP_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SP_REDIS_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.txt", cfg.Document.Path)
	assert.Equal(t, 7, cfg.Snippet.MaxTokens)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("snippet: [unclosed"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("invalid limits", func(t *testing.T) {
		t.Setenv("SP_SNIPPET_MAX_SENTENCES", "0")
		_, err := Load("")
		assert.ErrorContains(t, err, "maxSentences")
	})

	t.Run("unknown source", func(t *testing.T) {
		t.Setenv("SP_DOCUMENT_SOURCE", "s3")
		_, err := Load("")
		assert.ErrorContains(t, err, "document.source")
	})
}
