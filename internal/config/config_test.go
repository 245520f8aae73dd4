package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seopilot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfigFile(t, `
domains:
  primary: shop.example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 70, cfg.Limits.MaxRisk)
	require.Equal(t, 5, cfg.Limits.MaxChangesPerDay)
	require.Equal(t, 5, cfg.Limits.MaxFileModifications)
	require.Equal(t, 100, cfg.Limits.MaxPagesCrawl)
	require.Equal(t, time.Second, cfg.RateLimit())
	require.Equal(t, "runs", cfg.Output.RunsDir)
	require.Equal(t, "reports/patches", cfg.Output.PatchesDir)
	require.Equal(t, "noop", cfg.Alerts.Provider)
	require.Equal(t, "local", cfg.Storage.Provider)
	require.Equal(t, "0 6 * * *", cfg.Schedule.Cron)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfigFile(t, `
domains:
  primary: shop.example.com
  app: ai.example.com
limits:
  max_risk: 50
  max_changes_per_day: 3
validation:
  forbidden_words: [cure, miracle]
  allowed_disclaimers: ["not intended to diagnose"]
priority_pages:
  primary: ["/", "/products"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "ai.example.com", cfg.Domains.App)
	require.Equal(t, 50, cfg.Limits.MaxRisk)
	require.Equal(t, 3, cfg.Limits.MaxChangesPerDay)
	require.Equal(t, []string{"cure", "miracle"}, cfg.Validation.ForbiddenWords)
	require.Equal(t, []string{"/", "/products"}, cfg.PriorityPages["primary"])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "read config")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Domains: DomainsConfig{Primary: "shop.example.com"},
			Limits: LimitsConfig{
				MaxRisk:              70,
				MaxChangesPerDay:     5,
				MaxFileModifications: 5,
				MaxPagesCrawl:        100,
			},
			Server:  ServerConfig{Port: 8080},
			Alerts:  AlertsConfig{Provider: "noop"},
			Storage: StorageConfig{Provider: "local"},
		}
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, base().Validate())
	})

	t.Run("no domains", func(t *testing.T) {
		cfg := base()
		cfg.Domains = DomainsConfig{}
		require.Error(t, cfg.Validate())
	})

	t.Run("risk out of range", func(t *testing.T) {
		cfg := base()
		cfg.Limits.MaxRisk = 101
		require.Error(t, cfg.Validate())
	})

	t.Run("auth requires key", func(t *testing.T) {
		cfg := base()
		cfg.Server.Auth.Enabled = true
		require.Error(t, cfg.Validate())
	})

	t.Run("pubsub requires project and topic", func(t *testing.T) {
		cfg := base()
		cfg.Alerts = AlertsConfig{Provider: "pubsub"}
		require.Error(t, cfg.Validate())
		cfg.Alerts.ProjectID = "proj"
		cfg.Alerts.Topic = "alerts"
		require.NoError(t, cfg.Validate())
	})

	t.Run("unknown storage provider", func(t *testing.T) {
		cfg := base()
		cfg.Storage.Provider = "s3"
		require.Error(t, cfg.Validate())
	})
}
