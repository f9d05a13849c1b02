package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chdirTemp moves into an empty temp dir so no config.yaml is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	t.Setenv("DATABASE_URL", "")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 500, cfg.Ingest.ChunkSize)
	assert.Equal(t, []string{"utf-8", "shift_jis", "euc-jp"}, cfg.Ingest.Encodings)
	assert.Equal(t, "movie_master.csv", cfg.Ingest.MoviesFile)
	assert.Equal(t, "box_office.csv", cfg.Ingest.BoxOfficeFile)
	assert.Equal(t, "sns_trends.csv", cfg.Ingest.TrendsFile)
	assert.Equal(t, 500, cfg.Ingest.MatchSampleLimit)
	assert.Equal(t, 14, cfg.Ingest.FallbackDays)
	assert.Equal(t, 30, cfg.Ingest.FallbackMovies)
	assert.Equal(t, 20, cfg.Verify.SampleSize)
	assert.InDelta(t, 0.8, cfg.Verify.GoodThreshold, 0.001)
	assert.InDelta(t, 0.5, cfg.Verify.FairThreshold, 0.001)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/boxoffice
log:
  level: debug
  format: console
ingest:
  chunk_size: 100
  encodings: [shift_jis]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 100, cfg.Ingest.ChunkSize)
	assert.Equal(t, []string{"shift_jis"}, cfg.Ingest.Encodings)
	// Defaults still apply for unset values
	assert.Equal(t, 20, cfg.Verify.SampleSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
ingest:
  chunk_size: 100
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("BOXOFFICE_INGEST_CHUNK_SIZE", "50")
	t.Setenv("BOXOFFICE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Ingest.ChunkSize)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadDatabaseURLFallback(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DATABASE_URL", "postgres://db.internal/boxoffice")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://db.internal/boxoffice", cfg.Store.DatabaseURL)
}

func TestLoadDatabaseURLDoesNotOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DATABASE_URL", "postgres://db.internal/boxoffice")
	t.Setenv("BOXOFFICE_STORE_DATABASE_URL", "local.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "local.db", cfg.Store.DatabaseURL)
}

func TestLoadBadYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Ingest.ChunkSize = 500
	cfg.Verify.SampleSize = 20
	cfg.Verify.GoodThreshold = 0.8
	cfg.Verify.FairThreshold = 0.5
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"defaults", func(*Config) {}, ""},
		{"postgres without url", func(c *Config) { c.Store.Driver = "postgres" }, "store.database_url is required"},
		{"postgres with url", func(c *Config) {
			c.Store.Driver = "postgres"
			c.Store.DatabaseURL = "postgres://x"
		}, ""},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }, "store.driver must be"},
		{"zero chunk", func(c *Config) { c.Ingest.ChunkSize = 0 }, "ingest.chunk_size"},
		{"negative sample limit", func(c *Config) { c.Ingest.MatchSampleLimit = -1 }, "match_sample_limit"},
		{"zero sample size", func(c *Config) { c.Verify.SampleSize = 0 }, "verify.sample_size"},
		{"inverted thresholds", func(c *Config) { c.Verify.FairThreshold = 0.9 }, "fair_threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSQLitePath(t *testing.T) {
	cfg := validDefaults()
	assert.Equal(t, "boxoffice.db", cfg.SQLitePath())

	cfg.Store.DatabaseURL = "sqlite:///tmp/x.db"
	assert.Equal(t, "/tmp/x.db", cfg.SQLitePath())
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
