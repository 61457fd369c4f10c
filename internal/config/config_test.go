package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "chores.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 6, cfg.Queue.Workers)
	assert.Equal(t, 1<<20, cfg.Queue.ChunkSize)
	assert.Equal(t, "gzip, deflate", cfg.Queue.AcceptEncoding)
	assert.Equal(t, "en-GB", cfg.Price.AcceptLanguage)
	assert.NoError(t, cfg.ValidateQueue())
	assert.NoError(t, cfg.ValidatePrice())
}

func TestLoad_file(t *testing.T) {
	path := writeConfig(t, `
queue:
  file: /tmp/queue
  workers: 2
  timeout: 90s
price:
  notify_url: http://localhost:8080/books
logging:
  level: warn
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/queue", cfg.Queue.File)
	assert.Equal(t, 2, cfg.Queue.Workers)
	assert.Equal(t, 90*time.Second, cfg.Queue.Timeout)
	assert.Equal(t, 1<<20, cfg.Queue.ChunkSize)
	assert.Equal(t, "http://localhost:8080/books", cfg.Price.NotifyURL)
	assert.Equal(t, "/srv/exported_books.yaml", cfg.Price.StateFile)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_envOverrides(t *testing.T) {
	path := writeConfig(t, "queue:\n  workers: 2\n")
	t.Setenv("CHORES_QUEUE_WORKERS", "9")
	t.Setenv("CHORES_PRICE_STATE_FILE", "/data/books.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Queue.Workers)
	assert.Equal(t, "/data/books.yaml", cfg.Price.StateFile)
}

func TestLoad_missingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Queue.Workers = 0
	assert.Error(t, cfg.ValidateQueue())

	cfg = Default()
	cfg.Price.ProductURL = "https://example.com/dp/"
	assert.Error(t, cfg.ValidatePrice())
}
