package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the site server, the MP service and
// the terminal wizard.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	ContactMP ContactMPConfig `yaml:"contact_mp"`
	MPService MPServiceConfig `yaml:"mpservice"`
	Directory DirectoryConfig `yaml:"directory"`
	Drafting  DraftingConfig  `yaml:"drafting"`
	Redis     RedisConfig     `yaml:"redis"`
}

// ServerConfig holds HTTP server configuration for the campaign site.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	StaticDir      string   `yaml:"static_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	CookieSecure   bool     `yaml:"cookie_secure"`
}

// GetHost returns the server host, with container detection.
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Redact reports whether PII redaction is on. It defaults to true.
func (c LogConfig) Redact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// ContactMPConfig points the wizard at its two collaborators. The base URLs
// and credentials are deployment concerns and never compiled in.
type ContactMPConfig struct {
	DirectoryURL         string `yaml:"directory_url"`
	GeneratorURL         string `yaml:"generator_url"`
	APIKey               string `yaml:"api_key"`
	TimeoutSeconds       int    `yaml:"timeout_seconds"`
	SessionTTLMinutes    int    `yaml:"session_ttl_minutes"`
	SweepIntervalSeconds int    `yaml:"sweep_interval_seconds"`
	WaitSeconds          int    `yaml:"wait_seconds"`
}

// Timeout returns the per-call timeout as a duration.
func (c ContactMPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SessionTTL returns how long an idle wizard lives.
func (c ContactMPConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// SweepInterval returns how often idle wizards are collected.
func (c ContactMPConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// Wait returns how long a handler waits for a call before answering
// with the pending snapshot.
func (c ContactMPConfig) Wait() time.Duration {
	return time.Duration(c.WaitSeconds) * time.Second
}

// MPServiceConfig holds HTTP configuration for the collaborator service.
type MPServiceConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	APIKey         string   `yaml:"api_key"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DirectoryConfig holds the public data APIs used to resolve postcodes.
type DirectoryConfig struct {
	PostcodesBaseURL string `yaml:"postcodes_base_url"`
	MembersBaseURL   string `yaml:"members_base_url"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	MaxRetries       int    `yaml:"max_retries"`
	CacheTTLHours    int    `yaml:"cache_ttl_hours"`
}

// Timeout returns the configured timeout as a duration.
func (c DirectoryConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long resolved postcodes stay cached.
func (c DirectoryConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// DraftingConfig controls letter generation.
type DraftingConfig struct {
	BedrockEnabled bool   `yaml:"bedrock_enabled"`
	ModelID        string `yaml:"model_id"`
	Region         string `yaml:"region"`
	MaxTokens      int    `yaml:"max_tokens"`
	CampaignName   string `yaml:"campaign_name"`
	SignOff        string `yaml:"sign_off"`
}

// RedisConfig holds the optional Redis connection used for caching.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied, for binaries
// started without a config file.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = "./web/dist"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.ContactMP.DirectoryURL == "" {
		cfg.ContactMP.DirectoryURL = "http://localhost:5000"
	}
	if cfg.ContactMP.GeneratorURL == "" {
		cfg.ContactMP.GeneratorURL = cfg.ContactMP.DirectoryURL
	}
	if cfg.ContactMP.TimeoutSeconds == 0 {
		cfg.ContactMP.TimeoutSeconds = 30
	}
	if cfg.ContactMP.SessionTTLMinutes == 0 {
		cfg.ContactMP.SessionTTLMinutes = 30
	}
	if cfg.ContactMP.SweepIntervalSeconds == 0 {
		cfg.ContactMP.SweepIntervalSeconds = 60
	}
	if cfg.ContactMP.WaitSeconds == 0 {
		cfg.ContactMP.WaitSeconds = 35
	}
	if cfg.MPService.Port == 0 {
		cfg.MPService.Port = 5000
	}
	if cfg.MPService.Host == "" {
		cfg.MPService.Host = "localhost"
	}
	if len(cfg.MPService.AllowedOrigins) == 0 {
		cfg.MPService.AllowedOrigins = cfg.Server.AllowedOrigins
	}
	if cfg.Directory.PostcodesBaseURL == "" {
		cfg.Directory.PostcodesBaseURL = "https://api.postcodes.io"
	}
	if cfg.Directory.MembersBaseURL == "" {
		cfg.Directory.MembersBaseURL = "https://members-api.parliament.uk"
	}
	if cfg.Directory.TimeoutSeconds == 0 {
		cfg.Directory.TimeoutSeconds = 10
	}
	if cfg.Directory.MaxRetries == 0 {
		cfg.Directory.MaxRetries = 2
	}
	if cfg.Directory.CacheTTLHours == 0 {
		cfg.Directory.CacheTTLHours = 24
	}
	if cfg.Drafting.ModelID == "" {
		cfg.Drafting.ModelID = "anthropic.claude-3-haiku-20240307-v1:0"
	}
	if cfg.Drafting.Region == "" {
		cfg.Drafting.Region = "eu-west-2"
	}
	if cfg.Drafting.MaxTokens == 0 {
		cfg.Drafting.MaxTokens = 1200
	}
	if cfg.Drafting.CampaignName == "" {
		cfg.Drafting.CampaignName = "HOST"
	}
	if cfg.Drafting.SignOff == "" {
		cfg.Drafting.SignOff = "Yours sincerely,"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars when deployed.
// A missing config file is not an error: defaults plus env apply.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if os.IsNotExist(err) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CONTACT_MP_DIRECTORY_URL"); v != "" {
		cfg.ContactMP.DirectoryURL = v
	}
	if v := os.Getenv("CONTACT_MP_GENERATOR_URL"); v != "" {
		cfg.ContactMP.GeneratorURL = v
	}
	if v := os.Getenv("CONTACT_MP_API_KEY"); v != "" {
		cfg.ContactMP.APIKey = v
	}
	if v := os.Getenv("MPSERVICE_API_KEY"); v != "" {
		cfg.MPService.APIKey = v
	}
	if v := os.Getenv("MPSERVICE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MPService.Port = port
		}
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	} else if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Drafting.Region = v
	}
	if v := os.Getenv("BEDROCK_MODEL_ID"); v != "" {
		cfg.Drafting.ModelID = v
	}
	if v := os.Getenv("BEDROCK_ENABLED"); v != "" {
		cfg.Drafting.BedrockEnabled = v == "true" || v == "1"
	}

	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
