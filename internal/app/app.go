// Package app wires configuration, logging, storage, alerting, and the
// pipeline components into a runnable application.
package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	alertmem "github.com/lumera/seopilot/internal/alert/memory"
	alertnoop "github.com/lumera/seopilot/internal/alert/noop"
	alertpubsub "github.com/lumera/seopilot/internal/alert/pubsub"
	"github.com/lumera/seopilot/internal/analyzers"
	"github.com/lumera/seopilot/internal/api"
	"github.com/lumera/seopilot/internal/clock/system"
	"github.com/lumera/seopilot/internal/config"
	"github.com/lumera/seopilot/internal/crawl"
	"github.com/lumera/seopilot/internal/executor"
	"github.com/lumera/seopilot/internal/gate"
	"github.com/lumera/seopilot/internal/hash/sha256"
	iduuid "github.com/lumera/seopilot/internal/id/uuid"
	"github.com/lumera/seopilot/internal/logging"
	"github.com/lumera/seopilot/internal/merchant"
	"github.com/lumera/seopilot/internal/orchestrator"
	"github.com/lumera/seopilot/internal/planner"
	"github.com/lumera/seopilot/internal/recorder"
	"github.com/lumera/seopilot/internal/seo"
	"github.com/lumera/seopilot/internal/sitemap"
	"github.com/lumera/seopilot/internal/storage"
	storagegcs "github.com/lumera/seopilot/internal/storage/gcs"
	storagelocal "github.com/lumera/seopilot/internal/storage/local"
	storagemem "github.com/lumera/seopilot/internal/storage/memory"
)

// App is the assembled application.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Clock    seo.Clock
	Store    storage.Store
	Alerts   seo.AlertPublisher
	Recorder *recorder.Recorder
	Pipeline *orchestrator.Orchestrator
	Merchant *merchant.HealthChecker

	closers []func() error
}

// New loads configuration and assembles every component.
func New(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, Clock: system.New()}

	if err := a.wireStore(ctx); err != nil {
		return nil, err
	}
	if err := a.wireAlerts(ctx); err != nil {
		return nil, err
	}

	a.Recorder = recorder.New(a.Store, cfg.Output.RunsDir, cfg.Output.ReportsDir, a.Clock, logger)

	g, err := gate.New(cfg.Validation.ForbiddenWords, cfg.Validation.AllowedDisclaimers,
		cfg.Limits.MaxFileModifications, logger)
	if err != nil {
		return nil, err
	}

	sitemaps := sitemap.NewClient(cfg.CrawlTimeout(), cfg.Crawler.UserAgent, logger)
	crawler, err := crawl.New(crawl.Options{
		Host:      cfg.Domains.Primary,
		UserAgent: cfg.Crawler.UserAgent,
		MaxDepth:  cfg.Crawler.MaxDepth,
		MaxPages:  cfg.Limits.MaxPagesCrawl,
		Delay:     cfg.RateLimit(),
		Timeout:   cfg.CrawlTimeout(),
	}, sitemaps, a.Clock, logger)
	if err != nil {
		return nil, err
	}

	robotsURL := fmt.Sprintf("https://%s/robots.txt", cfg.Domains.Primary)
	registry := analyzers.NewRegistry([]seo.Analyzer{
		analyzers.NewTechnical(robotsURL, cfg.Crawler.UserAgent, cfg.AllPriorityPages(),
			&http.Client{Timeout: cfg.CrawlTimeout()}, a.Clock, logger),
		analyzers.NewLinking(a.Clock, logger),
		analyzers.NewSchema(a.Clock, logger),
		analyzers.NewContent(a.Clock, logger),
		analyzers.NewMonitoring(a.Recorder, a.Alerts, sha256.New(), cfg.Alerts.Topic, a.Clock, logger),
	}, a.Clock, logger)

	seeds := append([]string{fmt.Sprintf("https://%s/", cfg.Domains.Primary)}, cfg.AllPriorityPages()...)

	a.Pipeline = orchestrator.New(
		crawler,
		seeds,
		registry,
		planner.New(cfg.Limits.MaxRisk, cfg.Limits.MaxChangesPerDay, a.Clock, logger),
		executor.New(a.Store, cfg.Output.PatchesDir, cfg.Domains.Primary, cfg.Domains.App, a.Clock, logger),
		g,
		a.Recorder,
		a.Clock,
		iduuid.New(),
		logger,
	)

	gmcClient := merchant.NewClient("", cfg.Merchant.MerchantID, cfg.Merchant.Token, logger)
	a.Merchant = merchant.NewHealthChecker(gmcClient, a.Alerts, cfg.Alerts.Topic, cfg.Merchant.Brand, a.Clock, logger)

	return a, nil
}

// Server builds the admin HTTP server on top of the assembled app.
func (a *App) Server() *api.Server {
	return api.NewServer(a.Pipeline, a.Merchant, a.Recorder, api.AuthConfig{
		Enabled: a.Config.Server.Auth.Enabled,
		APIKey:  a.Config.Server.Auth.APIKey,
	}, a.Logger)
}

// Close releases external resources in reverse acquisition order.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return firstErr
}

func (a *App) wireStore(ctx context.Context) error {
	switch a.Config.Storage.Provider {
	case "local":
		store, err := storagelocal.New(a.Config.Storage.LocalDir)
		if err != nil {
			return fmt.Errorf("local store: %w", err)
		}
		a.Store = store
	case "memory":
		a.Store = storagemem.New()
	case "gcs":
		store, err := storagegcs.New(ctx, a.Config.Storage.GCSBucket)
		if err != nil {
			return fmt.Errorf("gcs store: %w", err)
		}
		a.Store = store
		a.closers = append(a.closers, store.Close)
	default:
		return fmt.Errorf("unknown storage provider: %s", a.Config.Storage.Provider)
	}
	a.Logger.Info("storage wired", zap.String("provider", a.Config.Storage.Provider))
	return nil
}

func (a *App) wireAlerts(ctx context.Context) error {
	switch a.Config.Alerts.Provider {
	case "noop":
		a.Alerts = alertnoop.New(a.Logger)
	case "memory":
		a.Alerts = alertmem.New()
	case "pubsub":
		pub, err := alertpubsub.New(ctx, a.Config.Alerts.ProjectID)
		if err != nil {
			return fmt.Errorf("pubsub publisher: %w", err)
		}
		a.Alerts = pub
		a.closers = append(a.closers, pub.Close)
	default:
		return fmt.Errorf("unknown alerts provider: %s", a.Config.Alerts.Provider)
	}
	a.Logger.Info("alerting wired", zap.String("provider", a.Config.Alerts.Provider))
	return nil
}
