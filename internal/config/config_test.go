package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"
  static_dir: "./public"
  allowed_origins: ["https://host.example"]

log:
  level: debug
  redact_pii: false

contact_mp:
  directory_url: "https://directory.example"
  generator_url: "https://drafts.example"
  api_key: "k"
  timeout_seconds: 12
  session_ttl_minutes: 10

directory:
  cache_ttl_hours: 6
  max_retries: 4

drafting:
  bedrock_enabled: true
  model_id: "anthropic.claude-3-sonnet-20240229-v1:0"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "./public", cfg.Server.StaticDir)
	assert.Equal(t, []string{"https://host.example"}, cfg.Server.AllowedOrigins)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.Redact())

	assert.Equal(t, "https://directory.example", cfg.ContactMP.DirectoryURL)
	assert.Equal(t, "https://drafts.example", cfg.ContactMP.GeneratorURL)
	assert.Equal(t, "k", cfg.ContactMP.APIKey)
	assert.Equal(t, 12*time.Second, cfg.ContactMP.Timeout())
	assert.Equal(t, 10*time.Minute, cfg.ContactMP.SessionTTL())

	assert.Equal(t, 6*time.Hour, cfg.Directory.CacheTTL())
	assert.Equal(t, 4, cfg.Directory.MaxRetries)

	assert.True(t, cfg.Drafting.BedrockEnabled)
	assert.Equal(t, "anthropic.claude-3-sonnet-20240229-v1:0", cfg.Drafting.ModelID)
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("contact_mp:\n  directory_url: \"http://mp:5000\"\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.True(t, cfg.Log.Redact())
	assert.Equal(t, "http://mp:5000", cfg.ContactMP.GeneratorURL, "generator defaults to the directory base URL")
	assert.Equal(t, 30*time.Second, cfg.ContactMP.Timeout())
	assert.Equal(t, 30*time.Minute, cfg.ContactMP.SessionTTL())
	assert.Equal(t, time.Minute, cfg.ContactMP.SweepInterval())
	assert.Equal(t, 5000, cfg.MPService.Port)
	assert.Equal(t, "https://api.postcodes.io", cfg.Directory.PostcodesBaseURL)
	assert.Equal(t, "https://members-api.parliament.uk", cfg.Directory.MembersBaseURL)
	assert.Equal(t, 24*time.Hour, cfg.Directory.CacheTTL())
	assert.Equal(t, "HOST", cfg.Drafting.CampaignName)
}

func TestLoadFromEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("contact_mp:\n  directory_url: \"http://file:5000\"\n"), 0644))

	t.Setenv("CONTACT_MP_DIRECTORY_URL", "http://env:5000")
	t.Setenv("CONTACT_MP_API_KEY", "secret")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("BEDROCK_ENABLED", "true")
	t.Setenv("PORT", "7070")

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	assert.Equal(t, "http://env:5000", cfg.ContactMP.DirectoryURL)
	assert.Equal(t, "secret", cfg.ContactMP.APIKey)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Drafting.BedrockEnabled)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadFromEnvWithoutFile(t *testing.T) {
	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", cfg.ContactMP.DirectoryURL)
}

func TestLoadInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [unclosed"), 0644))
	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestServerHostOverride(t *testing.T) {
	t.Setenv("SERVER_HOST", "127.0.0.2")
	assert.Equal(t, "127.0.0.2", ServerConfig{Host: "localhost"}.GetHost())
}
