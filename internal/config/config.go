package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/nookly/threadwatch/internal/models"
	"gopkg.in/yaml.v3"
)

const configPathEnv = "THREADWATCH_CONFIG"

// Config holds all configuration for the application. Values come from an
// optional YAML file, with secrets overridable through environment variables.
type Config struct {
	// Server configuration
	Port  string `yaml:"port"`
	Debug bool   `yaml:"debug"`

	Forums   []ForumConfig  `yaml:"forums"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Storage  StorageConfig  `yaml:"storage"`
	Drafting DraftingConfig `yaml:"drafting"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Email    EmailConfig    `yaml:"email"`

	// API credentials (environment only, never in the YAML file)
	RedditClientID     string `yaml:"-"`
	RedditClientSecret string `yaml:"-"`
	AnthropicAPIKey    string `yaml:"-"`
	AnthropicModel     string `yaml:"anthropic_model"`
}

// ForumConfig names one monitored forum and its tier class.
type ForumConfig struct {
	Name  string           `yaml:"name"`
	Class models.TierClass `yaml:"class"`
}

// FetchConfig bounds what the forum gateway pulls per cycle.
type FetchConfig struct {
	Limit       int `yaml:"limit"`
	MinScore    int `yaml:"min_score"`
	MinComments int `yaml:"min_comments"`
}

// TermWeight is one scored vocabulary entry.
type TermWeight struct {
	Term   string `yaml:"term"`
	Weight int    `yaml:"weight"`
}

// TierThresholds maps a numeric score to a priority tier for one tier class.
// Anything below Low is rejected.
type TierThresholds struct {
	High   int `yaml:"high"`
	Medium int `yaml:"medium"`
	Low    int `yaml:"low"`
}

// EngagementConfig shapes the diminishing-returns engagement boost.
// MaxBoost caps how much engagement alone can add to the keyword score.
type EngagementConfig struct {
	MaxBoost   float64 `yaml:"max_boost"`
	Saturation float64 `yaml:"saturation"`
}

// AmbiguousBand is the score range in which the scorer consults the text
// service for a refined rating.
type AmbiguousBand struct {
	Low  int `yaml:"low"`
	High int `yaml:"high"`
}

// ScoringConfig is the full relevance-scoring surface.
type ScoringConfig struct {
	Terms        []TermWeight                        `yaml:"terms"`
	Engagement   EngagementConfig                    `yaml:"engagement"`
	Ambiguous    AmbiguousBand                       `yaml:"ambiguous"`
	Thresholds   map[models.TierClass]TierThresholds `yaml:"thresholds"`
	PromptBudget int                                 `yaml:"prompt_budget"`
}

// StorageConfig selects and parameterizes the durable backend.
type StorageConfig struct {
	Backend           string `yaml:"backend"` // "local" or "azure"
	Path              string `yaml:"path"`
	AzureAccount      string `yaml:"azure_account"`
	AzureContainer    string `yaml:"azure_container"`
	MaxRecordsPerTier int    `yaml:"max_records_per_tier"`
	BodyExcerptLimit  int    `yaml:"body_excerpt_limit"`
}

// DraftingConfig bounds the reply-drafting spend.
type DraftingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	MaxResponses int     `yaml:"max_responses"`
	MaxTokens    int     `yaml:"max_tokens"`
	Temperature  float64 `yaml:"temperature"`
	ToneProfile  string  `yaml:"tone_profile"`
}

// ScheduleConfig drives the polling cadence and the daily digest.
type ScheduleConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	DigestTime   string        `yaml:"digest_time"` // "HH:MM", wall clock in Timezone
	Timezone     string        `yaml:"timezone"`
}

// Location resolves the schedule timezone, falling back to UTC.
func (s ScheduleConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DigestClock parses DigestTime into hour and minute.
func (s ScheduleConfig) DigestClock() (hour, minute int, err error) {
	if _, err := fmt.Sscanf(s.DigestTime, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("digest_time %q is not HH:MM: %w", s.DigestTime, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("digest_time %q out of range", s.DigestTime)
	}
	return hour, minute, nil
}

// EmailConfig wires the digest mailer.
type EmailConfig struct {
	SMTPHost  string `yaml:"smtp_host"`
	SMTPPort  int    `yaml:"smtp_port"`
	Username  string `yaml:"-"`
	Password  string `yaml:"-"`
	Sender    string `yaml:"sender"`
	Recipient string `yaml:"recipient"`
}

// Load reads the YAML config named by THREADWATCH_CONFIG (if set), applies
// environment overrides for secrets, and validates the result. A validation
// failure here is fatal to the caller: the process must not begin polling
// with a broken configuration.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Port = getEnv("PORT", c.Port)
	c.Debug = getBoolEnv("DEBUG", c.Debug)

	c.RedditClientID = getEnv("REDDIT_CLIENT_ID", "")
	c.RedditClientSecret = getEnv("REDDIT_CLIENT_SECRET", "")
	c.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", "")
	c.AnthropicModel = getEnv("ANTHROPIC_MODEL", c.AnthropicModel)

	c.Email.Username = getEnv("SMTP_USERNAME", "")
	c.Email.Password = getEnv("SMTP_PASSWORD", "")
	c.Email.SMTPHost = getEnv("SMTP_HOST", c.Email.SMTPHost)
	c.Email.SMTPPort = getIntEnv("SMTP_PORT", c.Email.SMTPPort)
	c.Email.Recipient = getEnv("DIGEST_RECIPIENT", c.Email.Recipient)

	c.Storage.AzureAccount = getEnv("AZURE_STORAGE_ACCOUNT", c.Storage.AzureAccount)
	c.Storage.AzureContainer = getEnv("AZURE_STORAGE_CONTAINER", c.Storage.AzureContainer)
}

func (c *Config) validate() error {
	if len(c.Forums) == 0 {
		return fmt.Errorf("at least one forum must be configured")
	}
	for _, f := range c.Forums {
		switch f.Class {
		case models.ClassPrimary, models.ClassSecondary, models.ClassTertiary:
		default:
			return fmt.Errorf("forum %q has unknown tier class %q", f.Name, f.Class)
		}
	}
	for _, class := range models.ClassOrder {
		t, ok := c.Scoring.Thresholds[class]
		if !ok {
			return fmt.Errorf("missing score thresholds for tier class %q", class)
		}
		if t.High < t.Medium || t.Medium < t.Low {
			return fmt.Errorf("thresholds for %q must satisfy high >= medium >= low", class)
		}
	}
	if c.Scoring.Ambiguous.Low > c.Scoring.Ambiguous.High {
		return fmt.Errorf("ambiguous band low must not exceed high")
	}
	if c.Scoring.Engagement.MaxBoost < 0 || c.Scoring.Engagement.Saturation <= 0 {
		return fmt.Errorf("engagement boost requires max_boost >= 0 and saturation > 0")
	}
	if c.Storage.MaxRecordsPerTier <= 0 {
		return fmt.Errorf("max_records_per_tier must be positive")
	}
	switch c.Storage.Backend {
	case "local":
		if c.Storage.Path == "" {
			return fmt.Errorf("local storage requires a path")
		}
	case "azure":
		if c.Storage.AzureAccount == "" || c.Storage.AzureContainer == "" {
			return fmt.Errorf("azure storage requires account and container")
		}
	default:
		return fmt.Errorf("storage backend must be 'local' or 'azure'")
	}
	if c.Schedule.PollInterval < time.Minute {
		return fmt.Errorf("poll_interval must be at least one minute")
	}
	if _, _, err := c.Schedule.DigestClock(); err != nil {
		return err
	}
	if c.Email.Recipient != "" {
		if c.Email.SMTPHost == "" || c.Email.Sender == "" {
			return fmt.Errorf("SMTP host and sender are required when a digest recipient is set")
		}
	}
	if c.Drafting.Enabled && c.Drafting.MaxResponses <= 0 {
		return fmt.Errorf("drafting requires max_responses > 0")
	}
	return nil
}

// ClassFor returns the configured tier class of a forum. Unknown forums are
// treated as tertiary so a stale record never crashes the scorer.
func (c *Config) ClassFor(forum string) models.TierClass {
	for _, f := range c.Forums {
		if f.Name == forum {
			return f.Class
		}
	}
	return models.ClassTertiary
}

// ForumsByClass returns the configured forums of one tier class, preserving
// file order.
func (c *Config) ForumsByClass(class models.TierClass) []ForumConfig {
	var out []ForumConfig
	for _, f := range c.Forums {
		if f.Class == class {
			out = append(out, f)
		}
	}
	return out
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
