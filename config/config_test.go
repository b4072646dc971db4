package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/repoatlas/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repoatlas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("should parse a full config file", func(t *testing.T) {
		// given
		path := writeConfig(t, `
provider:
  type: gitlab
  url: https://gitlab.example.com
  token: glpat-abc123
  group: acme
scanning:
  concurrent_scans: 8
  timeout_seconds: 60
  file_extensions: [".py", ".go"]
reporting:
  format: yaml
  output_file: out.yaml
`)

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "gitlab", cfg.Provider.Type)
		assert.Equal(t, "glpat-abc123", cfg.Provider.Token)
		assert.Equal(t, "acme", cfg.Provider.Group)
		assert.Equal(t, 8, cfg.Scanning.ConcurrentScans)
		assert.Equal(t, 60, cfg.Scanning.TimeoutSeconds)
		assert.Equal(t, []string{".py", ".go"}, cfg.Scanning.FileExtensions)
		assert.Equal(t, "yaml", cfg.Reporting.Format)
	})

	t.Run("should expand environment variables in the token", func(t *testing.T) {
		// given
		t.Setenv("REPOATLAS_TEST_TOKEN", "secret-from-env")
		path := writeConfig(t, `
provider:
  type: gitlab
  token: ${REPOATLAS_TEST_TOKEN}
`)

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "secret-from-env", cfg.Provider.Token)
	})

	t.Run("should read the token from a file when the value is a path", func(t *testing.T) {
		// given
		tokenFile := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("file-token\n"), 0o600))
		path := writeConfig(t, "provider:\n  type: gitlab\n  token: "+tokenFile+"\n")

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "file-token", cfg.Provider.Token)
	})

	t.Run("should reject an unsupported provider type", func(t *testing.T) {
		// given
		path := writeConfig(t, "provider:\n  type: bitbucket\n")

		// when
		_, err := config.Load(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bitbucket")
	})

	t.Run("should require a clone root for the local provider", func(t *testing.T) {
		// given
		path := writeConfig(t, "provider:\n  type: local\n")

		// when
		_, err := config.Load(path)

		// then
		require.Error(t, err)
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		// when
		_, err := config.Load("/nonexistent/repoatlas.yaml")

		// then
		require.Error(t, err)
	})
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	t.Run("should fill every default on an empty config", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := &config.Config{}

		// when
		cfg.ApplyDefaults()

		// then
		assert.Equal(t, "gitlab", cfg.Provider.Type)
		assert.Equal(t, config.DefaultConcurrentScans, cfg.Scanning.ConcurrentScans)
		assert.Equal(t, config.DefaultTimeoutSeconds, cfg.Scanning.TimeoutSeconds)
		assert.Equal(t, config.DefaultFileExtensions, cfg.Scanning.FileExtensions)
		assert.Equal(t, "json", cfg.Reporting.Format)
	})

	t.Run("should clamp concurrency into its valid range", func(t *testing.T) {
		t.Parallel()

		// given
		high := &config.Config{}
		high.Scanning.ConcurrentScans = 500
		low := &config.Config{}
		low.Scanning.ConcurrentScans = -3

		// when
		high.ApplyDefaults()
		low.ApplyDefaults()

		// then
		assert.Equal(t, config.MaxConcurrentScans, high.Scanning.ConcurrentScans)
		assert.Equal(t, config.MinConcurrentScans, low.Scanning.ConcurrentScans)
	})

	t.Run("should clamp the timeout into its valid range", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := &config.Config{}
		cfg.Scanning.TimeoutSeconds = 5

		// when
		cfg.ApplyDefaults()

		// then
		assert.Equal(t, config.MinTimeoutSeconds, cfg.Scanning.TimeoutSeconds)
	})

	t.Run("should keep values already inside the range", func(t *testing.T) {
		t.Parallel()

		// given
		cfg := &config.Config{}
		cfg.Scanning.ConcurrentScans = 10
		cfg.Scanning.TimeoutSeconds = 120

		// when
		cfg.ApplyDefaults()

		// then
		assert.Equal(t, 10, cfg.Scanning.ConcurrentScans)
		assert.Equal(t, 120, cfg.Scanning.TimeoutSeconds)
	})
}

func TestEnabled(t *testing.T) {
	t.Parallel()

	t.Run("should treat an unset toggle as enabled", func(t *testing.T) {
		t.Parallel()

		assert.True(t, config.Enabled(nil))
	})

	t.Run("should honor explicit values", func(t *testing.T) {
		t.Parallel()

		yes, no := true, false
		assert.True(t, config.Enabled(&yes))
		assert.False(t, config.Enabled(&no))
	})
}
