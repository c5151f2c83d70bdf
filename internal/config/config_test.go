package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.toml"))
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "document_processing", cfg.RabbitMQ.Queue)
	assert.Equal(t, 30*time.Minute, cfg.DocumentTTL())
	assert.EqualValues(t, 16<<20, cfg.Storage.MaxUploadBytes)
	assert.Equal(t, "0.0.0.0:5000", cfg.HTTPAddr())
	assert.True(t, cfg.Worker.Embedded)
	assert.Equal(t, 2*time.Minute, cfg.ProcessTimeout())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[app]
port = 9000

[redis]
document_ttl_seconds = 60

[storage]
upload_dir = "/var/lib/slidedeck"
strict_pdf = true
`), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "9100")
	t.Setenv("WORKER_EMBEDDED", "false")
	t.Setenv("WORKER_CONCURRENCY", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.App.Port)
	assert.Equal(t, time.Minute, cfg.DocumentTTL())
	assert.Equal(t, "/var/lib/slidedeck", cfg.Storage.UploadDir)
	assert.True(t, cfg.Storage.StrictPDF)
	assert.False(t, cfg.Worker.Embedded)
	assert.Equal(t, 2, cfg.Worker.Concurrency)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("RABBITMQ_QUEUE=decks_from_dotenv\n"), 0o644))
	t.Setenv("ENV_FILE", envPath)
	// godotenv never overrides variables that are already set; register
	// cleanup for the one it sets.
	t.Setenv("RABBITMQ_QUEUE", "")
	require.NoError(t, os.Unsetenv("RABBITMQ_QUEUE"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "decks_from_dotenv", cfg.RabbitMQ.Queue)
}

func TestLoad_BadTOML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[app\nport = "), 0o644))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	require.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, "root:@tcp(127.0.0.1:3306)/pitch_deck_db?parseTime=true&loc=UTC&charset=utf8mb4", cfg.MySQLDSN())
}
