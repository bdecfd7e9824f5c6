package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30000, cfg.Timeout)
	assert.Equal(t, "application/x-www-form-urlencoded; charset=UTF-8", cfg.ContentType)
	assert.True(t, cfg.GetValidateSSL())
	assert.False(t, cfg.GetDebug())
	assert.True(t, cfg.IsDefault())
}

func TestFindAndLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	content := `timeout: 5000
userAgent: hitreq/1.0
headers:
  X-Api-Key: secret
cookieStore: ./cookies.db
debug: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hitreq.yaml"), []byte(content), 0644))

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Timeout)
	assert.Equal(t, "hitreq/1.0", cfg.UserAgent)
	assert.Equal(t, "secret", cfg.Headers["X-Api-Key"])
	assert.Equal(t, "./cookies.db", cfg.CookieStore)
	assert.True(t, cfg.GetDebug())
	assert.Equal(t, http.DefaultContentType, cfg.ContentType)
	assert.False(t, cfg.IsDefault())
}

func TestFindAndLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hitreq.json"),
		[]byte(`{"timeout": -1, "contentType": "application/json"}`), 0644))

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.Timeout)
	assert.Equal(t, "application/json", cfg.ContentType)
}

func TestFindAndLoadConfig_NoFile(t *testing.T) {
	cfg, err := FindAndLoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.IsDefault())
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"timeout": "soon"`), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"A": "1"}

	merged := base.Merge(&Config{
		Timeout: -1,
		Headers: map[string]string{"B": "2"},
		Debug:   BoolPtr(true),
	})

	assert.Equal(t, -1, merged.Timeout)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, merged.Headers)
	assert.True(t, merged.GetDebug())
	assert.Equal(t, map[string]string{"A": "1"}, base.Headers)
	assert.Same(t, base, base.Merge(nil))
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := DefaultConfig()
			cfg.UserAgent = "custom"
			cfg.Headers = map[string]string{"X-A": "1"}
			require.NoError(t, cfg.SaveConfig(path))

			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestApply(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 1000
	cfg.UserAgent = "hitreq"
	cfg.Headers = map[string]string{"X-Env": "test"}

	rc := cfg.Apply(http.New("http://example.com")).Config()
	assert.Equal(t, 1000, rc.Timeout)
	assert.Equal(t, "hitreq", rc.UserAgent)
	assert.Equal(t, "test", rc.Headers.Get("X-Env"))
}

func TestLoggerConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "warn", cfg.LoggerConfig().Level)

	cfg.Debug = BoolPtr(true)
	assert.Equal(t, "debug", cfg.LoggerConfig().Level)
}
