package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nookly/threadwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := defaultConfig()
	assert.NoError(t, cfg.validate())
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.NotEmpty(t, cfg.Forums)
	assert.Equal(t, 15*time.Minute, cfg.Schedule.PollInterval)
	assert.Equal(t, "08:00", cfg.Schedule.DigestTime)
}

func TestYAMLFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
schedule:
  poll_interval: 5m
  digest_time: "07:30"
  timezone: "UTC"
`), 0644))
	t.Setenv(configPathEnv, path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.Schedule.PollInterval)
	assert.Equal(t, "07:30", cfg.Schedule.DigestTime)
	// Untouched sections keep their defaults.
	assert.NotEmpty(t, cfg.Scoring.Terms)
}

func TestEnvOverridesSecrets(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("REDDIT_CLIENT_ID", "id123")
	t.Setenv("REDDIT_CLIENT_SECRET", "secret456")
	t.Setenv("ANTHROPIC_API_KEY", "key789")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "id123", cfg.RedditClientID)
	assert.Equal(t, "secret456", cfg.RedditClientSecret)
	assert.Equal(t, "key789", cfg.AnthropicAPIKey)
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no forums", func(c *Config) { c.Forums = nil }},
		{"unknown tier class", func(c *Config) {
			c.Forums[0].Class = models.TierClass("platinum")
		}},
		{"missing thresholds", func(c *Config) {
			delete(c.Scoring.Thresholds, models.ClassSecondary)
		}},
		{"inverted thresholds", func(c *Config) {
			c.Scoring.Thresholds[models.ClassPrimary] = TierThresholds{High: 3, Medium: 5, Low: 7}
		}},
		{"inverted ambiguous band", func(c *Config) {
			c.Scoring.Ambiguous = AmbiguousBand{Low: 8, High: 4}
		}},
		{"zero saturation", func(c *Config) {
			c.Scoring.Engagement.Saturation = 0
		}},
		{"zero tier capacity", func(c *Config) {
			c.Storage.MaxRecordsPerTier = 0
		}},
		{"unknown storage backend", func(c *Config) {
			c.Storage.Backend = "s3"
		}},
		{"local storage without path", func(c *Config) {
			c.Storage.Path = ""
		}},
		{"azure storage without account", func(c *Config) {
			c.Storage.Backend = "azure"
			c.Storage.AzureAccount = ""
		}},
		{"sub-minute poll interval", func(c *Config) {
			c.Schedule.PollInterval = 10 * time.Second
		}},
		{"bad digest time", func(c *Config) {
			c.Schedule.DigestTime = "25:00"
		}},
		{"recipient without smtp host", func(c *Config) {
			c.Email.Recipient = "ops@example.com"
			c.Email.SMTPHost = ""
		}},
		{"drafting without budget", func(c *Config) {
			c.Drafting.Enabled = true
			c.Drafting.MaxResponses = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.validate())
		})
	}
}

func TestDigestClock(t *testing.T) {
	s := ScheduleConfig{DigestTime: "08:30"}
	hour, minute, err := s.DigestClock()
	require.NoError(t, err)
	assert.Equal(t, 8, hour)
	assert.Equal(t, 30, minute)

	for _, bad := range []string{"", "8am", "24:00", "12:60", "noon"} {
		s := ScheduleConfig{DigestTime: bad}
		_, _, err := s.DigestClock()
		assert.Error(t, err, "digest time %q should be rejected", bad)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, ScheduleConfig{Timezone: "Not/AZone"}.Location())
	assert.Equal(t, time.UTC, ScheduleConfig{}.Location())
}

func TestClassForUnknownForumIsTertiary(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, models.ClassPrimary, cfg.ClassFor("teachers"))
	assert.Equal(t, models.ClassTertiary, cfg.ClassFor("unknown_forum"))
}

func TestForumsByClassPreservesOrder(t *testing.T) {
	cfg := &Config{Forums: []ForumConfig{
		{Name: "a", Class: models.ClassPrimary},
		{Name: "b", Class: models.ClassSecondary},
		{Name: "c", Class: models.ClassPrimary},
	}}

	primary := cfg.ForumsByClass(models.ClassPrimary)
	require.Len(t, primary, 2)
	assert.Equal(t, "a", primary[0].Name)
	assert.Equal(t, "c", primary[1].Name)
	assert.Empty(t, cfg.ForumsByClass(models.ClassTertiary))
}
