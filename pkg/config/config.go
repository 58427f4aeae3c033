package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for sitepulse-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// LLM collaborator (OpenAI-compatible proxy)
	LLM LLMConfig `yaml:"llm"`

	// Analytics reporting collaborator (GA4 Data API)
	Analytics AnalyticsConfig `yaml:"analytics"`

	// SEO crawl dataset collaborator (Google Sheet or local XLSX export)
	SEO SEOConfig `yaml:"seo"`
}

// LLMConfig holds LLM endpoint configuration. The client is disabled when
// endpoint or API key is missing; the service then serves deterministic
// fallback summaries.
type LLMConfig struct {
	Endpoint       string `yaml:"endpoint" env:"LLM_BASE_URL" env-default:""`
	Model          string `yaml:"model" env:"LLM_MODEL" env-default:"gemini-2.5-flash"`
	APIKey         string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS" env-default:"10"`
	MaxRetries     int    `yaml:"max_retries" env:"LLM_MAX_RETRIES" env-default:"2"`
}

// AnalyticsConfig holds GA4 Data API access configuration.
type AnalyticsConfig struct {
	// CredentialsPath points at a service account key file. Loaded fresh per
	// request so key rotation does not require a restart.
	CredentialsPath string `yaml:"credentials_path" env:"ANALYTICS_CREDENTIALS_PATH" env-default:"credentials.json"`
}

// SEOConfig holds crawl dataset configuration.
type SEOConfig struct {
	// SheetLocation is a Google Sheets URL or a local .xlsx path.
	SheetLocation   string `yaml:"sheet_location" env:"SEO_SHEET_URL" env-default:""`
	SheetGID        string `yaml:"sheet_gid" env:"SEO_SHEET_GID" env-default:""`
	WorksheetTitle  string `yaml:"worksheet_title" env:"SEO_SHEET_WORKSHEET_TITLE" env-default:""`
	UseAllTabs      bool   `yaml:"use_all_tabs" env:"SEO_SHEET_USE_ALL_TABS" env-default:"false"`
	MaxRows         int    `yaml:"max_rows" env:"SEO_MAX_ROWS" env-default:"20"`
	CredentialsPath string `yaml:"credentials_path" env:"SEO_CREDENTIALS_PATH" env-default:"credentials.json"`
}

// WantsAllTabs reports whether multi-tab mode is requested, either via the
// explicit flag or an "all tabs" worksheet title alias.
func (c *SEOConfig) WantsAllTabs() bool {
	if c.UseAllTabs {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.WorksheetTitle)) {
	case "*", "all", "all_tabs", "all tabs":
		return true
	}
	return false
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	return cfg, nil
}
