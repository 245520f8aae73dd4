// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Domains       DomainsConfig       `mapstructure:"domains"`
	Limits        LimitsConfig        `mapstructure:"limits"`
	Crawler       CrawlerConfig       `mapstructure:"crawler"`
	Output        OutputConfig        `mapstructure:"output"`
	PriorityPages map[string][]string `mapstructure:"priority_pages"`
	Validation    ValidationConfig    `mapstructure:"validation"`
	Schedule      ScheduleConfig      `mapstructure:"schedule"`
	Server        ServerConfig        `mapstructure:"server"`
	Alerts        AlertsConfig        `mapstructure:"alerts"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Merchant      MerchantConfig      `mapstructure:"merchant"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// DomainsConfig names the two audited hosts. Primary is the storefront;
// App is the secondary application domain.
type DomainsConfig struct {
	Primary string `mapstructure:"primary"`
	App     string `mapstructure:"app"`
}

// LimitsConfig holds the risk/volume ceilings and crawl throttles.
type LimitsConfig struct {
	MaxRisk              int `mapstructure:"max_risk"`
	MaxChangesPerDay     int `mapstructure:"max_changes_per_day"`
	MaxFileModifications int `mapstructure:"max_file_modifications"`
	MaxPagesCrawl        int `mapstructure:"max_pages_crawl"`
	RateLimitSeconds     int `mapstructure:"rate_limit_seconds"`
}

// CrawlerConfig governs crawl behavior against the audited sites.
type CrawlerConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	MaxDepth       int    `mapstructure:"max_depth"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// OutputConfig sets the artifact directories, keyed per run date.
type OutputConfig struct {
	RunsDir    string `mapstructure:"runs_directory"`
	ReportsDir string `mapstructure:"reports_directory"`
	PatchesDir string `mapstructure:"patches_directory"`
}

// ValidationConfig lists the content policy inputs for the quality gate.
type ValidationConfig struct {
	ForbiddenWords     []string `mapstructure:"forbidden_words"`
	AllowedDisclaimers []string `mapstructure:"allowed_disclaimers"`
}

// ScheduleConfig controls the daily cron run.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// ServerConfig controls the admin HTTP server.
type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Auth AuthConfig `mapstructure:"auth"`
}

// AuthConfig defines admin API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// AlertsConfig selects the alert publisher backend.
type AlertsConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// StorageConfig selects the artifact blob store backend. LocalDir is
// the base directory of the local provider.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	LocalDir  string `mapstructure:"local_directory"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// MerchantConfig holds Google Merchant Center and Shopify credentials for
// the standalone health-check job.
type MerchantConfig struct {
	MerchantID    string `mapstructure:"merchant_id"`
	Token         string `mapstructure:"token"`
	ShopifyDomain string `mapstructure:"shopify_domain"`
	ShopifyToken  string `mapstructure:"shopify_token"`
	Brand         string `mapstructure:"brand"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SEOPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("limits.max_risk", 70)
	v.SetDefault("limits.max_changes_per_day", 5)
	v.SetDefault("limits.max_file_modifications", 5)
	v.SetDefault("limits.max_pages_crawl", 100)
	v.SetDefault("limits.rate_limit_seconds", 1)
	v.SetDefault("crawler.user_agent", "seopilot-bot/1.0")
	v.SetDefault("crawler.max_depth", 3)
	v.SetDefault("crawler.timeout_seconds", 30)
	v.SetDefault("output.runs_directory", "runs")
	v.SetDefault("output.reports_directory", "reports")
	v.SetDefault("output.patches_directory", "reports/patches")
	v.SetDefault("schedule.cron", "0 6 * * *")
	v.SetDefault("server.port", 8080)
	v.SetDefault("alerts.provider", "noop")
	v.SetDefault("alerts.topic", "seo-alerts")
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.local_directory", "data")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Domains.Primary == "" && c.Domains.App == "" {
		return fmt.Errorf("at least one of domains.primary or domains.app must be set")
	}
	if c.Limits.MaxRisk < 0 || c.Limits.MaxRisk > 100 {
		return fmt.Errorf("limits.max_risk must be in [0,100]")
	}
	if c.Limits.MaxChangesPerDay <= 0 {
		return fmt.Errorf("limits.max_changes_per_day must be > 0")
	}
	if c.Limits.MaxFileModifications <= 0 {
		return fmt.Errorf("limits.max_file_modifications must be > 0")
	}
	if c.Limits.MaxPagesCrawl <= 0 {
		return fmt.Errorf("limits.max_pages_crawl must be > 0")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.Auth.Enabled && c.Server.Auth.APIKey == "" {
		return fmt.Errorf("server.auth.api_key must be set when auth is enabled")
	}
	switch c.Alerts.Provider {
	case "noop", "memory":
	case "pubsub":
		if c.Alerts.ProjectID == "" || c.Alerts.Topic == "" {
			return fmt.Errorf("alerts.project_id and alerts.topic must be set for the pubsub provider")
		}
	default:
		return fmt.Errorf("unknown alerts provider: %s", c.Alerts.Provider)
	}
	switch c.Storage.Provider {
	case "local", "memory":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set for the gcs provider")
		}
	default:
		return fmt.Errorf("unknown storage provider: %s", c.Storage.Provider)
	}
	return nil
}

// AllPriorityPages flattens the priority page groups into one list.
func (c Config) AllPriorityPages() []string {
	var pages []string
	for _, group := range c.PriorityPages {
		pages = append(pages, group...)
	}
	return pages
}

// RateLimit converts the configured inter-request delay into a duration.
func (c Config) RateLimit() time.Duration {
	return time.Duration(c.Limits.RateLimitSeconds) * time.Second
}

// CrawlTimeout converts the configured HTTP timeout into a duration.
func (c Config) CrawlTimeout() time.Duration {
	return time.Duration(c.Crawler.TimeoutSeconds) * time.Second
}
